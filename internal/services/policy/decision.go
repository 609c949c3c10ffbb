package policy

import (
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/services/moderation"
)

type Reason string

const (
	ReasonVerificationRequired   Reason = "verification_required"
	ReasonMessagingNotEligible   Reason = "messaging_not_eligible"
	ReasonContentPolicyViolation Reason = "content_policy_violation"
	ReasonTermsNotAccepted       Reason = "terms_not_accepted"
	ReasonPermissionDenied       Reason = "permission_denied"
	ReasonEntityNotFound         Reason = "entity_not_found"
	// ReasonInternal accompanies a non-nil error from Authorize.
	ReasonInternal Reason = "internal_error"
)

// Decision is the outcome of a gate. A denial always carries a Message and,
// when the user can fix it, a Remediation link.
type Decision struct {
	Allowed     bool                 `json:"allowed"`
	Reason      Reason               `json:"reason,omitempty"`
	Message     string               `json:"message,omitempty"`
	Remediation string               `json:"remediation,omitempty"`
	Redirect    string               `json:"redirect,omitempty"`
	Findings    []moderation.Finding `json:"findings,omitempty"`
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(reason Reason, message string) Decision {
	return Decision{Reason: reason, Message: message}
}

func (d Decision) WithRemediation(link string) Decision {
	d.Remediation = link
	return d
}

func (d Decision) WithRedirect(to string) Decision {
	d.Redirect = to
	return d
}

// DeniedError carries a denial through an error return.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return "policy: " + string(e.Decision.Reason) + ": " + e.Decision.Message
}
