// Package verification derives a user's onboarding state (documents
// uploaded, documents verified, terms accepted) from stored attributes.
package verification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
	"github.com/Windi-Fikriyansyah/beezy_gate/internal/store"
)

const (
	KeyDocVerified       = "hp_doc_verified"
	KeyDocVerifiedLegacy = "doc_verified"
	KeyProofIdentity     = "hp_proof_identity"
	KeyProofSchool       = "hp_proof_school"

	termsKeyPrefix = "terms_accepted_"
)

type DocumentKind string

const (
	DocIdentityProof DocumentKind = "identity_proof"
	DocSchoolProof   DocumentKind = "school_proof"
)

// AttributeKey is where an upload of kind is recorded.
func (k DocumentKind) AttributeKey() string {
	switch k {
	case DocIdentityProof:
		return KeyProofIdentity
	case DocSchoolProof:
		return KeyProofSchool
	}
	return ""
}

// RequiredDocuments lists what a role must upload.
func RequiredDocuments(role models.Role) []DocumentKind {
	switch role {
	case models.RoleWorker:
		return []DocumentKind{DocIdentityProof, DocSchoolProof}
	case models.RoleRequester:
		return []DocumentKind{DocIdentityProof}
	}
	return nil
}

// TermsKey is the attribute holding the acceptance time of a terms revision.
func TermsKey(revision string) string {
	return termsKeyPrefix + revision
}

// Truthy reports membership in the accepted verification values:
// 1, "1", true, "true" and "yes" (strings case-insensitive).
func Truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x == 1
	case int:
		return x == 1
	case int64:
		return x == 1
	case string:
		switch strings.ToLower(x) {
		case "1", "true", "yes":
			return true
		}
	}
	return false
}

type AttributeReader interface {
	UserAttribute(ctx context.Context, userID uuid.UUID, key string) (any, error)
}

type Reader struct {
	attrs AttributeReader
}

func NewReader(attrs AttributeReader) *Reader {
	return &Reader{attrs: attrs}
}

// IsVerified checks both verification keys; either one being truthy is enough.
func (r *Reader) IsVerified(ctx context.Context, userID uuid.UUID) (bool, error) {
	for _, key := range []string{KeyDocVerified, KeyDocVerifiedLegacy} {
		v, err := r.attrs.UserAttribute(ctx, userID, key)
		if err != nil {
			return false, fmt.Errorf("read %s: %w", key, err)
		}
		if Truthy(v) {
			return true, nil
		}
	}
	return false, nil
}

// MissingDocuments returns the required uploads the user has not provided.
// It does not look at verification.
func (r *Reader) MissingDocuments(ctx context.Context, user *models.User) ([]DocumentKind, error) {
	var missing []DocumentKind
	for _, kind := range RequiredDocuments(user.Role) {
		v, err := r.attrs.UserAttribute(ctx, user.ID, kind.AttributeKey())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", kind.AttributeKey(), err)
		}
		if store.Empty(v) {
			missing = append(missing, kind)
		}
	}
	return missing, nil
}

// TermsAccepted reports whether the user accepted the given revision.
func (r *Reader) TermsAccepted(ctx context.Context, userID uuid.UUID, revision string) (bool, error) {
	v, err := r.attrs.UserAttribute(ctx, userID, TermsKey(revision))
	if err != nil {
		return false, fmt.Errorf("read terms: %w", err)
	}
	return !store.Empty(v), nil
}
