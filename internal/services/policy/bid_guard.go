package policy

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type BidStore interface {
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	CreateBid(ctx context.Context, b *models.Bid) error
}

// BidGuard is the model-level gate: every internal bid creation goes through
// it so the CreateBid rule applies even when the HTTP layer is bypassed.
type BidGuard struct {
	engine *Engine
	bids   BidStore
}

func NewBidGuard(engine *Engine, bids BidStore) *BidGuard {
	return &BidGuard{engine: engine, bids: bids}
}

// Create stores b on behalf of actor. Denials come back as *DeniedError.
func (g *BidGuard) Create(ctx context.Context, actor *models.User, b *models.Bid) error {
	task, err := g.bids.GetTask(ctx, b.TaskID)
	if errors.Is(err, store.ErrNotFound) {
		return &DeniedError{Decision: Deny(ReasonEntityNotFound, "This task no longer exists.")}
	}
	if err != nil {
		return err
	}

	d, err := g.engine.AuthorizeAll(ctx, actor,
		Check{Action: CreateBid, Input: Input{Task: task}},
		Check{Action: PublishBidText, Input: Input{Text: b.Message}},
	)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &DeniedError{Decision: d}
	}

	b.WorkerID = actor.ID
	return g.bids.CreateBid(ctx, b)
}
