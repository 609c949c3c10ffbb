package middleware

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/policy"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

// DecisionStatus maps a denial reason to an HTTP status.
func DecisionStatus(d policy.Decision) int {
	switch d.Reason {
	case policy.ReasonVerificationRequired, policy.ReasonMessagingNotEligible, policy.ReasonTermsNotAccepted:
		return fiber.StatusForbidden
	case policy.ReasonContentPolicyViolation:
		return fiber.StatusUnprocessableEntity
	case policy.ReasonEntityNotFound:
		return fiber.StatusNotFound
	case policy.ReasonPermissionDenied:
		if d.Message == policy.MsgLoginRequired {
			return fiber.StatusUnauthorized
		}
		return fiber.StatusForbidden
	}
	return fiber.StatusInternalServerError
}

// Deny writes the denial envelope.
func Deny(c *fiber.Ctx, d policy.Decision) error {
	body := fiber.Map{
		"success": false,
		"message": d.Message,
		"reason":  d.Reason,
	}
	if d.Remediation != "" {
		body["remediation"] = d.Remediation
	}
	if d.Redirect != "" {
		body["redirect"] = d.Redirect
	}
	if len(d.Findings) > 0 {
		body["findings"] = d.Findings
	}
	return c.Status(DecisionStatus(d)).JSON(body)
}

// Enforce writes the outcome of Authorize when it is not an allow and
// reports whether the caller should stop.
func Enforce(c *fiber.Ctx, d policy.Decision, err error) (bool, error) {
	if err != nil {
		log.Printf("Policy evaluation failed on %s %s: %v", c.Method(), c.Path(), err)
		return true, Deny(c, d)
	}
	if !d.Allowed {
		return true, Deny(c, d)
	}
	return false, nil
}

// TermsGate defers every request of a logged-in non-admin until the current
// terms revision is accepted.
func TermsGate(engine *policy.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := engine.Authorize(c.UserContext(), policy.AcceptTermsGate, Actor(c), policy.Input{Route: c.Path()})
		if stop, werr := Enforce(c, d, err); stop {
			return werr
		}
		return c.Next()
	}
}

// RouteGate applies the role and verification rules for gated paths.
func RouteGate(engine *policy.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := engine.Authorize(c.UserContext(), policy.AccessGatedRoute, Actor(c), policy.Input{Route: c.Path()})
		if stop, werr := Enforce(c, d, err); stop {
			return werr
		}
		return c.Next()
	}
}

type TaskGetter interface {
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// BidGate is the request-level CreateBid check. The task id comes from the
// route parameter param.
func BidGate(engine *policy.Engine, tasks TaskGetter, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		taskID, err := uuid.Parse(c.Params(param))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid task id")
		}
		task, err := tasks.GetTask(c.UserContext(), taskID)
		if errors.Is(err, store.ErrNotFound) {
			return Deny(c, policy.Deny(policy.ReasonEntityNotFound, "This task no longer exists."))
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load task")
		}

		d, err := engine.Authorize(c.UserContext(), policy.CreateBid, Actor(c), policy.Input{Task: task})
		if stop, werr := Enforce(c, d, err); stop {
			return werr
		}
		c.Locals("task", task)
		return c.Next()
	}
}
