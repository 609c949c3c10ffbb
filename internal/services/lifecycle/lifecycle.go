// Package lifecycle owns the transitions tying tasks, bids and payment orders
// together, and the queries derived from them.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/verification"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

var (
	ErrInvalidRole         = errors.New("lifecycle: role cannot be chosen at registration")
	ErrRoleAlreadyAssigned = errors.New("lifecycle: marketplace role already chosen")
	ErrPermissionDenied    = errors.New("lifecycle: actor does not own this entity")
	ErrBidAlreadyAccepted  = errors.New("lifecycle: bid already accepted")
)

const (
	DefaultMessagingWindow = 24 * time.Hour
	DefaultWelcomeText     = "Hi! Your offer has been accepted and paid for. You can now chat here about the task."
)

// Notifier pushes an event to a user after a transition commits. Delivery is
// best effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, payload any)
}

const (
	EventMessageNew  = "message.new"
	EventBidNew      = "bid.new"
	EventBidAccepted = "bid.accepted"
)

type Config struct {
	TermsRevision   string
	MessagingWindow time.Duration
	WelcomeText     string
	Now             func() time.Time
	Notifier        Notifier
}

type Lifecycle struct {
	store  store.Store
	verify *verification.Reader
	cfg    Config
}

func New(st store.Store, verify *verification.Reader, cfg Config) *Lifecycle {
	if cfg.MessagingWindow <= 0 {
		cfg.MessagingWindow = DefaultMessagingWindow
	}
	if cfg.WelcomeText == "" {
		cfg.WelcomeText = DefaultWelcomeText
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TermsRevision == "" {
		cfg.TermsRevision = "v1"
	}
	return &Lifecycle{store: st, verify: verify, cfg: cfg}
}

func (l *Lifecycle) Now() time.Time { return l.cfg.Now() }

func (l *Lifecycle) TermsRevision() string { return l.cfg.TermsRevision }

func (l *Lifecycle) Verifier() *verification.Reader { return l.verify }

func (l *Lifecycle) notify(ctx context.Context, userID uuid.UUID, event string, payload any) {
	if l.cfg.Notifier != nil {
		l.cfg.Notifier.Notify(ctx, userID, event, payload)
	}
}

// Notify forwards an event to the configured notifier, if any.
func (l *Lifecycle) Notify(ctx context.Context, userID uuid.UUID, event string, payload any) {
	l.notify(ctx, userID, event, payload)
}
