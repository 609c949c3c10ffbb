package lifecycle

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

// CanCommunicate reports whether a and b may exchange messages: an admin is
// always eligible, otherwise a paid order must link them (either direction)
// on a task whose date plus the window has not passed. The result does not
// depend on argument order.
func (l *Lifecycle) CanCommunicate(ctx context.Context, a, b *models.User) (bool, error) {
	if a == nil || b == nil {
		return false, nil
	}
	if a.IsAdmin() || b.IsAdmin() {
		return true, nil
	}
	if a.ID == b.ID {
		return false, nil
	}

	for _, pair := range [2][2]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}} {
		orders, err := l.store.OrdersBetween(ctx, pair[0], pair[1], models.PaidOrderStatuses)
		if err != nil {
			return false, err
		}
		for _, o := range orders {
			open, err := l.windowOpen(ctx, o.TaskID)
			if err != nil {
				return false, err
			}
			if open {
				return true, nil
			}
		}
	}
	return false, nil
}

func (l *Lifecycle) windowOpen(ctx context.Context, taskID uuid.UUID) (bool, error) {
	task, err := l.store.GetTask(ctx, taskID)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("Messaging window: task %s of a paid order is missing", taskID)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if task.TaskDate == nil {
		return true, nil
	}
	return !l.cfg.Now().After(task.TaskDate.Add(l.cfg.MessagingWindow)), nil
}

// UnseenBidCount counts bids on the owner's tasks they have not looked at.
func (l *Lifecycle) UnseenBidCount(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return l.store.CountUnseenBids(ctx, ownerID)
}

// ViewTask loads a task for display. When the viewer owns it, every unseen
// bid on it is marked seen.
func (l *Lifecycle) ViewTask(ctx context.Context, viewer *models.User, taskID uuid.UUID) (*models.Task, error) {
	task, err := l.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if viewer != nil && viewer.ID == task.OwnerID {
		if _, err := l.store.MarkBidsSeen(ctx, task.ID); err != nil {
			return nil, err
		}
	}
	return task, nil
}
