// Package gormstore implements store.Store on Postgres through gorm.
package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "unique constraint")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) FindUserByLogin(ctx context.Context, loginOrEmail string) (*models.User, error) {
	needle := strings.ToLower(strings.TrimSpace(loginOrEmail))
	var u models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(login) = ? OR LOWER(email) = ?", needle, needle).
		First(&u).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) SetUserRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UserAttribute(ctx context.Context, userID uuid.UUID, key string) (any, error) {
	var attr models.UserAttribute
	err := s.db.WithContext(ctx).Where("user_id = ? AND key = ?", userID, key).First(&attr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(attr.Value)
}

func decode(raw datatypes.JSON) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) SetUserAttribute(ctx context.Context, userID uuid.UUID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	attr := models.UserAttribute{UserID: userID, Key: key, Value: datatypes.JSON(raw)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&attr).Error
}

func (s *Store) UsersWithAttribute(ctx context.Context, keys ...string) ([]models.User, error) {
	var attrs []models.UserAttribute
	if err := s.db.WithContext(ctx).Where("key IN ?", keys).Find(&attrs).Error; err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, a := range attrs {
		v, err := decode(a.Value)
		if err != nil || store.Empty(v) || seen[a.UserID] {
			continue
		}
		seen[a.UserID] = true
		ids = append(ids, a.UserID)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) SetTaskStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND status <> ?", id, status).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := s.GetTask(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) GetBid(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var b models.Bid
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Store) CreateBid(ctx context.Context, b *models.Bid) error {
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *Store) AcceptBid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Bid{}).
		Where("id = ? AND accepted = ?", id, false).
		Update("accepted", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	if _, err := s.GetBid(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) CountUnseenBids(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Bid{}).
		Joins("JOIN tasks ON tasks.id = bids.task_id").
		Where("tasks.owner_id = ? AND bids.seen_by_task_owner = ?", ownerID, false).
		Count(&n).Error
	return n, err
}

func (s *Store) MarkBidsSeen(ctx context.Context, taskID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Bid{}).
		Where("task_id = ? AND seen_by_task_owner = ?", taskID, false).
		Update("seen_by_task_owner", true)
	return res.RowsAffected, res.Error
}

func (s *Store) GetPaymentOrder(ctx context.Context, id uuid.UUID) (*models.PaymentOrder, error) {
	var o models.PaymentOrder
	if err := s.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Store) CreatePaymentOrder(ctx context.Context, o *models.PaymentOrder) error {
	return s.db.WithContext(ctx).Create(o).Error
}

func (s *Store) SetPaymentOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.PaymentOrder, error) {
	var out *models.PaymentOrder
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.PaymentOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		updates := map[string]any{"status": status}
		if status.Paid() && o.PaidAt == nil {
			updates["paid_at"] = gorm.Expr("NOW()")
		}
		if err := tx.Model(&o).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(&o, "id = ?", id).Error; err != nil {
			return err
		}
		out = &o
		return nil
	})
	return out, err
}

func (s *Store) OrdersBetween(ctx context.Context, buyerID, workerID uuid.UUID, statuses []models.OrderStatus) ([]models.PaymentOrder, error) {
	var out []models.PaymentOrder
	err := s.db.WithContext(ctx).
		Joins("JOIN vendor_profiles ON vendor_profiles.id = payment_orders.vendor_id").
		Where("payment_orders.buyer_id = ? AND vendor_profiles.user_id = ? AND payment_orders.status IN ?",
			buyerID, workerID, statuses).
		Order("payment_orders.created_at").
		Find(&out).Error
	return out, err
}

func (s *Store) GetVendorProfile(ctx context.Context, id uuid.UUID) (*models.VendorProfile, error) {
	var p models.VendorProfile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) FindVendorProfileByUser(ctx context.Context, userID uuid.UUID) (*models.VendorProfile, error) {
	var p models.VendorProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *Store) CreateVendorProfile(ctx context.Context, p *models.VendorProfile) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(p)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return store.ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrDuplicate
	}
	return nil
}

func (s *Store) SendSystemMessage(ctx context.Context, m store.SystemMessage) (*models.Message, error) {
	taskID, bidID := m.TaskID, m.BidID
	msg := &models.Message{
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		TaskID:      &taskID,
		BidID:       &bidID,
		Type:        models.MessageSystem,
		Text:        m.Text,
		IsRead:      false,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "bid_id"}}, DoNothing: true}).
		Create(msg)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, store.ErrDuplicate
	}
	return msg, nil
}

func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	return s.db.WithContext(ctx).Create(m).Error
}

var _ store.Store = (*Store)(nil)
