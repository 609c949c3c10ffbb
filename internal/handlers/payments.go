package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/payments"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type PaymentHandler struct {
	Store     store.Entities
	Webhooks  *payments.WebhookService
	Lifecycle *lifecycle.Lifecycle
}

// HandleCallback records an order status reported by the commerce side and
// lets the lifecycle react. Retries of the same callback are safe.
func (h *PaymentHandler) HandleCallback(c *fiber.Ctx) error {
	ev, err := h.Webhooks.Parse(c.Get(payments.SignatureHeader), c.Body())
	switch {
	case errors.Is(err, payments.ErrInvalidSignature):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "invalid signature"})
	case err != nil:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "invalid payload"})
	}

	ctx := c.UserContext()
	order, err := h.Store.SetPaymentOrderStatus(ctx, ev.OrderID, ev.Status)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "order not found"})
	}
	if err != nil {
		log.Printf("Payment callback: update order %s: %v", ev.OrderID, err)
		return fail500(c, "failed to update order")
	}

	acc, err := h.Lifecycle.OnPaymentOrderStatusChanged(ctx, order)
	switch {
	case errors.Is(err, lifecycle.ErrPermissionDenied):
		log.Printf("Payment callback: order %s rejected: %v", order.ID, err)
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "order does not match its bid"})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "bid or task not found"})
	case err != nil:
		log.Printf("Payment callback: order %s: %v", order.ID, err)
		return fail500(c, "failed to apply order")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order":      order,
			"acceptance": acc,
		},
	})
}
