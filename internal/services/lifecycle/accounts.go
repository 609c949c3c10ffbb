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

// RoleOption is one entry of the registration role choice.
type RoleOption struct {
	Role  models.Role `json:"role"`
	Label string      `json:"label"`
}

const RoleChoiceLabel = "I want to..."

var RoleOptions = []RoleOption{
	{Role: models.RoleRequester, Label: "Ask for help"},
	{Role: models.RoleWorker, Label: "Help"},
}

func assignable(role models.Role) bool {
	for _, o := range RoleOptions {
		if o.Role == role {
			return true
		}
	}
	return false
}

// Landing is where a role goes after login or terms acceptance.
func Landing(role models.Role) string {
	switch role {
	case models.RoleWorker:
		return "/requests/"
	case models.RoleRequester:
		return "/submit-request/details/"
	}
	return "/"
}

// AssignRegistrationRole replaces the registration default role with the
// chosen marketplace role. Only requestor and bee are accepted, and only
// while the user still holds the default.
func (l *Lifecycle) AssignRegistrationRole(ctx context.Context, userID uuid.UUID, tag string) error {
	role := models.Role(tag)
	if !assignable(role) {
		return fmt.Errorf("%w: %q", ErrInvalidRole, tag)
	}
	u, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.Role == role {
		return nil
	}
	if u.Role != models.RoleSubscriber {
		return ErrRoleAlreadyAssigned
	}
	return l.store.SetUserRole(ctx, userID, role)
}

// SessionState is what the caller needs after a registration or login.
type SessionState struct {
	User              *models.User          `json:"user"`
	VendorProfile     *models.VendorProfile `json:"vendor_profile,omitempty"`
	VendorProvisioned bool                  `json:"vendor_provisioned"`
	TermsRequired     bool                  `json:"terms_required"`
	TermsRevision     string                `json:"terms_revision"`
	Landing           string                `json:"landing"`
}

func (l *Lifecycle) OnUserRegistered(ctx context.Context, userID uuid.UUID) (*SessionState, error) {
	return l.session(ctx, userID)
}

// OnUserLoggedIn runs on every successful login; provisioning is idempotent.
func (l *Lifecycle) OnUserLoggedIn(ctx context.Context, userID uuid.UUID) (*SessionState, error) {
	return l.session(ctx, userID)
}

func (l *Lifecycle) session(ctx context.Context, userID uuid.UUID) (*SessionState, error) {
	u, err := l.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	st := &SessionState{User: u, TermsRevision: l.cfg.TermsRevision, Landing: Landing(u.Role)}

	if u.IsWorker() {
		st.VendorProfile, st.VendorProvisioned, err = l.EnsureVendorProfile(ctx, u)
		if err != nil {
			return nil, err
		}
	}

	if !u.IsAdmin() {
		accepted, err := l.verify.TermsAccepted(ctx, u.ID, l.cfg.TermsRevision)
		if err != nil {
			return nil, err
		}
		st.TermsRequired = !accepted
	}
	return st, nil
}

// EnsureVendorProfile creates the worker's vendor profile if none exists in
// any status. A concurrent create that wins first counts as success.
func (l *Lifecycle) EnsureVendorProfile(ctx context.Context, u *models.User) (*models.VendorProfile, bool, error) {
	if !u.IsWorker() {
		return nil, false, nil
	}

	existing, err := l.store.FindVendorProfileByUser(ctx, u.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	p := &models.VendorProfile{
		UserID: u.ID,
		Title:  u.DisplayName(),
		Status: models.VendorPublished,
	}
	if err := l.store.CreateVendorProfile(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			existing, err := l.store.FindVendorProfileByUser(ctx, u.ID)
			return existing, false, err
		}
		return nil, false, err
	}
	log.Printf("Vendor profile %s provisioned for user %s", p.ID, u.ID)
	return p, true, nil
}
