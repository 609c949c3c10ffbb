package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/policy"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type MessageHandler struct {
	Store     store.Store
	Engine    *policy.Engine
	Lifecycle *lifecycle.Lifecycle
}

type SendMessageReq struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Text        string `json:"text" validate:"required,max=2056"`
}

func (h *MessageHandler) recipient(c *fiber.Ctx, raw string) (*models.User, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	u, err := h.Store.GetUser(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, middleware.Deny(c, policy.Deny(policy.ReasonEntityNotFound, "This user no longer exists."))
	}
	if err != nil {
		return nil, fail500(c, "failed to load user")
	}
	return u, nil
}

func (h *MessageHandler) Send(c *fiber.Ctx) error {
	var req SendMessageReq
	errs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validationFail(c, errs)
	}

	to, err := h.recipient(c, req.RecipientID)
	if to == nil {
		return err
	}

	actor := middleware.Actor(c)
	ctx := c.UserContext()
	d, err := h.Engine.AuthorizeAll(ctx, actor,
		policy.Check{Action: policy.SendMessage, Input: policy.Input{Recipient: to}},
		policy.Check{Action: policy.PublishBidText, Input: policy.Input{Text: req.Text}},
	)
	if stop, werr := middleware.Enforce(c, d, err); stop {
		return werr
	}

	msg := &models.Message{
		SenderID:    actor.ID,
		RecipientID: to.ID,
		Type:        models.MessageText,
		Text:        req.Text,
	}
	if err := h.Store.CreateMessage(ctx, msg); err != nil {
		return fail500(c, "failed to send message")
	}
	h.Lifecycle.Notify(ctx, to.ID, lifecycle.EventMessageNew, msg)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": msg})
}

// Eligibility is the advisory form of the send check, for showing or hiding
// the message box.
func (h *MessageHandler) Eligibility(c *fiber.Ctx) error {
	to, err := h.recipient(c, c.Params("userId"))
	if to == nil {
		return err
	}
	d, err := h.Engine.Authorize(c.UserContext(), policy.SendMessage, middleware.Actor(c), policy.Input{Recipient: to})
	if err != nil {
		return middleware.Deny(c, d)
	}
	return c.JSON(fiber.Map{"success": true, "data": d})
}
