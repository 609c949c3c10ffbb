package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/policy"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type BidHandler struct {
	Guard       *policy.BidGuard
	Lifecycle   *lifecycle.Lifecycle
	PlatformFee int64
}

type BidReq struct {
	Price   int64  `json:"price" validate:"gt=0"`
	Message string `json:"message" validate:"required,max=2056"`
}

// Create runs behind BidGate; the guard re-applies the same rule at the
// model level and checks the text.
func (h *BidHandler) Create(c *fiber.Ctx) error {
	task, _ := c.Locals("task").(*models.Task)
	if task == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "task not loaded")
	}

	var req BidReq
	errs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validationFail(c, errs)
	}

	actor := middleware.Actor(c)
	bid := &models.Bid{TaskID: task.ID, Price: req.Price, Message: req.Message, Approved: true}
	if err := h.Guard.Create(c.UserContext(), actor, bid); err != nil {
		var denied *policy.DeniedError
		if errors.As(err, &denied) {
			return middleware.Deny(c, denied.Decision)
		}
		log.Printf("Bid create on task %s: %v", task.ID, err)
		return middleware.Deny(c, policy.Deny(policy.ReasonInternal, policy.MsgInternal))
	}

	h.Lifecycle.Notify(c.UserContext(), task.OwnerID, lifecycle.EventBidNew, bid)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "offer submitted",
		"data":    bid,
	})
}

// Checkout opens the platform-fee order that accepts the bid once paid.
func (h *BidHandler) Checkout(c *fiber.Ctx) error {
	bidID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid bid id")
	}

	order, err := h.Lifecycle.OpenCheckout(c.UserContext(), middleware.Actor(c), bidID, h.PlatformFee)
	switch {
	case errors.Is(err, lifecycle.ErrPermissionDenied):
		return middleware.Deny(c, policy.Deny(policy.ReasonPermissionDenied, "Only the task owner can accept this offer."))
	case errors.Is(err, lifecycle.ErrBidAlreadyAccepted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "this offer has already been accepted",
		})
	case errors.Is(err, store.ErrNotFound):
		return middleware.Deny(c, policy.Deny(policy.ReasonEntityNotFound, "This offer no longer exists."))
	case err != nil:
		log.Printf("Checkout for bid %s: %v", bidID, err)
		return fail500(c, "failed to open checkout")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    order,
	})
}
