package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type Acceptance struct {
	OrderID        uuid.UUID       `json:"order_id"`
	BidID          uuid.UUID       `json:"bid_id"`
	TaskID         uuid.UUID       `json:"task_id"`
	Applied        bool            `json:"applied"`
	TaskPrivatized bool            `json:"task_privatized"`
	Welcome        *models.Message `json:"welcome,omitempty"`
}

// OnPaymentOrderStatusChanged reacts to an order entering a paid status by
// accepting its bid, closing the task and welcoming the worker. Other
// statuses are ignored and return nil. Replays of an already applied order
// change nothing.
func (l *Lifecycle) OnPaymentOrderStatusChanged(ctx context.Context, order *models.PaymentOrder) (*Acceptance, error) {
	if order == nil || !order.Status.Paid() {
		return nil, nil
	}

	res := &Acceptance{OrderID: order.ID, BidID: order.BidID, TaskID: order.TaskID}
	err := l.store.Transaction(ctx, func(tx store.Store) error {
		bid, err := tx.GetBid(ctx, order.BidID)
		if err != nil {
			return fmt.Errorf("load bid %s: %w", order.BidID, err)
		}
		if bid.TaskID != order.TaskID {
			return fmt.Errorf("%w: bid %s is not on task %s", ErrPermissionDenied, bid.ID, order.TaskID)
		}
		task, err := tx.GetTask(ctx, order.TaskID)
		if err != nil {
			return fmt.Errorf("load task %s: %w", order.TaskID, err)
		}
		if task.OwnerID != order.BuyerID {
			return fmt.Errorf("%w: buyer %s does not own task %s", ErrPermissionDenied, order.BuyerID, task.ID)
		}

		applied, err := tx.AcceptBid(ctx, bid.ID)
		if err != nil {
			return err
		}
		if !applied {
			return nil
		}
		res.Applied = true

		if res.TaskPrivatized, err = tx.SetTaskStatus(ctx, task.ID, models.TaskPrivate); err != nil {
			return err
		}

		workerID, ok, err := resolveWorker(ctx, tx, order.VendorID)
		if err != nil {
			return err
		}
		if !ok {
			log.Printf("Welcome message skipped for bid %s: worker behind vendor %s not found", bid.ID, order.VendorID)
			return nil
		}

		msg, err := tx.SendSystemMessage(ctx, store.SystemMessage{
			SenderID:    order.BuyerID,
			RecipientID: workerID,
			Text:        l.cfg.WelcomeText,
			TaskID:      task.ID,
			BidID:       bid.ID,
		})
		if errors.Is(err, store.ErrDuplicate) {
			return nil
		}
		if err != nil {
			return err
		}
		res.Welcome = msg
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Applied {
		log.Printf("Bid %s accepted via order %s (task private: %v)", res.BidID, res.OrderID, res.TaskPrivatized)
	}
	if res.Welcome != nil {
		l.notify(ctx, res.Welcome.RecipientID, EventMessageNew, res.Welcome)
		l.notify(ctx, res.Welcome.RecipientID, EventBidAccepted, res)
	}
	return res, nil
}

func resolveWorker(ctx context.Context, st store.Store, vendorID uuid.UUID) (uuid.UUID, bool, error) {
	vp, err := st.GetVendorProfile(ctx, vendorID)
	if errors.Is(err, store.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	u, err := st.GetUser(ctx, vp.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return u.ID, true, nil
}

// OpenCheckout creates the pending order a task owner pays to accept a bid.
// The charged amount is the platform fee; the bid price is informational.
func (l *Lifecycle) OpenCheckout(ctx context.Context, buyer *models.User, bidID uuid.UUID, fee int64) (*models.PaymentOrder, error) {
	bid, err := l.store.GetBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	task, err := l.store.GetTask(ctx, bid.TaskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != buyer.ID {
		return nil, ErrPermissionDenied
	}
	if bid.Accepted {
		return nil, ErrBidAlreadyAccepted
	}

	worker, err := l.store.GetUser(ctx, bid.WorkerID)
	if err != nil {
		return nil, err
	}
	vendor, _, err := l.EnsureVendorProfile(ctx, worker)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, fmt.Errorf("%w: bidder %s has no vendor profile", store.ErrNotFound, worker.ID)
	}

	order := &models.PaymentOrder{
		BuyerID:   buyer.ID,
		VendorID:  vendor.ID,
		TaskID:    task.ID,
		BidID:     bid.ID,
		BidAmount: bid.Price,
		Amount:    fee,
		Status:    models.OrderPending,
	}
	if err := l.store.CreatePaymentOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
