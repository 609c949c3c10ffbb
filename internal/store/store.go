// Package store declares the persistence collaborators the gate consumes.
// Implementations live in gormstore (Postgres) and memstore (in-process).
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
)

var (
	ErrNotFound  = errors.New("store: entity not found")
	ErrDuplicate = errors.New("store: entity already exists")
)

// Users is the user and user-attribute side of the content platform.
type Users interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByLogin(ctx context.Context, loginOrEmail string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	SetUserRole(ctx context.Context, id uuid.UUID, role models.Role) error

	// UserAttribute returns the decoded attribute value, or nil when absent.
	UserAttribute(ctx context.Context, userID uuid.UUID, key string) (any, error)
	SetUserAttribute(ctx context.Context, userID uuid.UUID, key string, value any) error
	// UsersWithAttribute lists users holding a non-empty value under any of keys.
	UsersWithAttribute(ctx context.Context, keys ...string) ([]models.User, error)
}

// Entities covers Task, Bid, PaymentOrder and VendorProfile. Every call is
// atomic on a single entity.
type Entities interface {
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	CreateTask(ctx context.Context, t *models.Task) error
	// SetTaskStatus reports whether the status actually changed.
	SetTaskStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) (bool, error)

	GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	CreateBid(ctx context.Context, b *models.Bid) error
	// AcceptBid flips accepted from false to true and reports whether this call did it.
	AcceptBid(ctx context.Context, id uuid.UUID) (bool, error)
	CountUnseenBids(ctx context.Context, ownerID uuid.UUID) (int64, error)
	MarkBidsSeen(ctx context.Context, taskID uuid.UUID) (int64, error)

	GetPaymentOrder(ctx context.Context, id uuid.UUID) (*models.PaymentOrder, error)
	CreatePaymentOrder(ctx context.Context, o *models.PaymentOrder) error
	SetPaymentOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.PaymentOrder, error)
	// OrdersBetween lists orders bought by buyerID whose vendor belongs to workerID.
	OrdersBetween(ctx context.Context, buyerID, workerID uuid.UUID, statuses []models.OrderStatus) ([]models.PaymentOrder, error)

	GetVendorProfile(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error)
	// FindVendorProfileByUser returns the profile in any status.
	FindVendorProfileByUser(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error)
	// CreateVendorProfile returns ErrDuplicate when the user already has one.
	CreateVendorProfile(ctx context.Context, p *models.VendorProfile) error
}

type SystemMessage struct {
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Text        string
	TaskID      uuid.UUID
	BidID       uuid.UUID
}

// Messenger persists messages. SendSystemMessage returns ErrDuplicate when
// the bid was already welcomed.
type Messenger interface {
	SendSystemMessage(ctx context.Context, m SystemMessage) (*models.Message, error)
	CreateMessage(ctx context.Context, m *models.Message) error
}

type Store interface {
	Users
	Entities
	Messenger

	// Transaction runs fn against a transactional view; any error rolls back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
