package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/verification"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type AdminHandler struct {
	Store    store.Users
	Verifier *verification.Reader
}

// SetVerification is the manual verification toggle.
func (h *AdminHandler) SetVerification(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}
	var req struct {
		Verified *bool `json:"verified" validate:"required"`
	}
	errs, err := bind(c, &req)
	if err != nil {
		return err
	}
	if errs != nil {
		return validationFail(c, errs)
	}

	value := "0"
	if *req.Verified {
		value = "1"
	}
	ctx := c.UserContext()
	if err := h.Store.SetUserAttribute(ctx, id, verification.KeyDocVerified, value); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return fail500(c, "failed to update verification")
	}
	log.Printf("Admin %s set verification of %s to %s", middleware.Actor(c).ID, id, value)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"user_id": id, "verified": *req.Verified},
	})
}

type pendingUser struct {
	User             models.User                 `json:"user"`
	MissingDocuments []verification.DocumentKind `json:"missing_documents"`
}

// PendingVerification lists users who uploaded documents and still wait
// for a decision.
func (h *AdminHandler) PendingVerification(c *fiber.Ctx) error {
	ctx := c.UserContext()
	users, err := h.Store.UsersWithAttribute(ctx, verification.KeyProofIdentity, verification.KeyProofSchool)
	if err != nil {
		return fail500(c, "failed to list users")
	}

	out := []pendingUser{}
	for i := range users {
		u := &users[i]
		ok, err := h.Verifier.IsVerified(ctx, u.ID)
		if err != nil {
			return fail500(c, "failed to read verification")
		}
		if ok {
			continue
		}
		missing, err := h.Verifier.MissingDocuments(ctx, u)
		if err != nil {
			return fail500(c, "failed to read documents")
		}
		out = append(out, pendingUser{User: *u, MissingDocuments: missing})
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}
