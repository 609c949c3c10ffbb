package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/moderation"
)

type ModerationHandler struct {
	Scanner *moderation.Scanner
}

// Dictionary serves the word list the browser-side pre-check uses.
func (h *ModerationHandler) Dictionary(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return c.JSON(h.Scanner.Dictionary())
}

func (h *ModerationHandler) Scan(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	findings := h.Scanner.Scan(req.Text)
	if findings == nil {
		findings = []moderation.Finding{}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"clean":    len(findings) == 0,
			"findings": findings,
		},
	})
}
