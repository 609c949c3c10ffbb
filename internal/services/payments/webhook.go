package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
)

var (
	ErrInvalidSignature = errors.New("payments: invalid webhook signature")
	ErrInvalidPayload   = errors.New("payments: invalid webhook payload")
)

const SignatureHeader = "X-Signature"

// WebhookService checks order-status callbacks from the commerce side.
// Signature: hex(HMAC-SHA256(raw body, secret)).
type WebhookService struct {
	Secret string
}

func NewWebhookService(secret string) *WebhookService {
	return &WebhookService{Secret: secret}
}

func (s *WebhookService) Sign(body []byte) string {
	h := hmac.New(sha256.New, []byte(s.Secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *WebhookService) ValidateSignature(incomingSig string, body []byte) bool {
	if s.Secret == "" || incomingSig == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(incomingSig))
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(s.Secret))
	h.Write(body)
	return hmac.Equal(got, h.Sum(nil))
}

type OrderStatusEvent struct {
	OrderID uuid.UUID          `json:"order_id"`
	Status  models.OrderStatus `json:"status"`
}

// Parse verifies the signature and decodes the event. The status is
// normalized, so "wc-completed" and "Completed" both read as completed.
func (s *WebhookService) Parse(sig string, body []byte) (*OrderStatusEvent, error) {
	if !s.ValidateSignature(sig, body) {
		return nil, ErrInvalidSignature
	}
	var ev OrderStatusEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, ErrInvalidPayload
	}
	ev.Status = models.OrderStatus(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(string(ev.Status))), "wc-"))
	if ev.OrderID == uuid.Nil || !models.ValidOrderStatus(ev.Status) {
		return nil, ErrInvalidPayload
	}
	return &ev, nil
}
