package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/middleware"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/lifecycle"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/policy"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/verification"
)

type PermissionHandler struct {
	Engine    *policy.Engine
	Lifecycle *lifecycle.Lifecycle
	Verifier  *verification.Reader
}

// Me returns advisory flags for rendering. Every flag comes from the same
// engine calls the enforcing paths make.
func (h *PermissionHandler) Me(c *fiber.Ctx) error {
	actor := middleware.Actor(c)
	ctx := c.UserContext()

	verified, err := h.Verifier.IsVerified(ctx, actor.ID)
	if err != nil {
		return fail500(c, "failed to read verification")
	}
	missing, err := h.Verifier.MissingDocuments(ctx, actor)
	if err != nil {
		return fail500(c, "failed to read documents")
	}
	if missing == nil {
		missing = []verification.DocumentKind{}
	}

	terms, err := h.Engine.Authorize(ctx, policy.AcceptTermsGate, actor, policy.Input{})
	if err != nil {
		return middleware.Deny(c, terms)
	}
	bid, err := h.Engine.Authorize(ctx, policy.CreateBid, actor, policy.Input{Task: &models.Task{}})
	if err != nil {
		return middleware.Deny(c, bid)
	}
	submit, err := h.Engine.Authorize(ctx, policy.AccessGatedRoute, actor, policy.Input{Route: h.Engine.Routes().VerifiedRequesterPath})
	if err != nil {
		return middleware.Deny(c, submit)
	}
	unseen, err := h.Lifecycle.UnseenBidCount(ctx, actor.ID)
	if err != nil {
		return fail500(c, "failed to count bids")
	}

	data := fiber.Map{
		"role":               actor.Role,
		"verified":           verified,
		"missing_documents":  missing,
		"terms_required":     !terms.Allowed,
		"terms_revision":     h.Engine.TermsRevision(),
		"can_bid":            actor.IsWorker() && bid.Allowed,
		"can_submit_request": (actor.IsRequester() || actor.IsAdmin()) && submit.Allowed,
		"unseen_bids":        unseen,
	}
	if actor.IsWorker() && !bid.Allowed {
		data["bid_label"] = policy.BidAdvisoryLabel
		data["bid_remediation"] = bid.Remediation
	}
	return c.JSON(fiber.Map{"success": true, "data": data})
}
