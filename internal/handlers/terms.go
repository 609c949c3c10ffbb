package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/verification"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

type TermsHandler struct {
	Store     store.Users
	Lifecycle *lifecycle.Lifecycle
}

func (h *TermsHandler) Status(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	rev := h.Lifecycle.TermsRevision()
	accepted, err := h.Lifecycle.Verifier().TermsAccepted(c.UserContext(), actor.ID, rev)
	if err != nil {
		return fail500(c, "failed to read terms status")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"revision": rev,
			"accepted": accepted || actor.IsAdmin(),
		},
	})
}

func (h *TermsHandler) Accept(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	rev := h.Lifecycle.TermsRevision()
	key := verification.TermsKey(rev)
	if err := h.Store.SetUserAttribute(c.UserContext(), actor.ID, key, h.Lifecycle.Now().Unix()); err != nil {
		log.Printf("Terms: accept for %s: %v", actor.ID, err)
		return fail500(c, "failed to save acceptance")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "terms accepted",
		"data": fiber.Map{
			"revision": rev,
			"landing":  lifecycle.Landing(actor.Role),
		},
	})
}

// Decline ends the session; the user cannot continue without accepting.
func (h *TermsHandler) Decline(c *fiber.Ctx) error {
	clearSession(c)
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "You need to accept the terms and conditions to use the platform.",
		"redirect": "/",
	})
}
