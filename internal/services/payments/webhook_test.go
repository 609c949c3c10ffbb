package payments

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/Windi-Fikriyansyah/beezy_gate/internal/models"
)

func TestValidateSignature(t *testing.T) {
	s := NewWebhookService("s3cret")
	body := []byte(`{"order_id":"x","status":"completed"}`)
	sig := s.Sign(body)

	if !s.ValidateSignature(sig, body) {
		t.Fatal("own signature rejected")
	}
	if s.ValidateSignature(sig, append(body, ' ')) {
		t.Fatal("tampered body accepted")
	}
	if s.ValidateSignature("not-hex", body) {
		t.Fatal("garbage signature accepted")
	}
	if NewWebhookService("").ValidateSignature(sig, body) {
		t.Fatal("empty secret must reject everything")
	}
}

func TestParse(t *testing.T) {
	s := NewWebhookService("s3cret")
	id := uuid.New()

	cases := []struct {
		status string
		want   models.OrderStatus
	}{
		{"completed", models.OrderCompleted},
		{"wc-processing", models.OrderProcessing},
		{"On-Hold", models.OrderOnHold},
		{"cancelled", models.OrderCancelled},
	}
	for _, tc := range cases {
		body := []byte(fmt.Sprintf(`{"order_id":%q,"status":%q}`, id, tc.status))
		ev, err := s.Parse(s.Sign(body), body)
		if err != nil {
			t.Fatalf("Parse(%s): %v", tc.status, err)
		}
		if ev.OrderID != id || ev.Status != tc.want {
			t.Fatalf("Parse(%s) = %+v", tc.status, ev)
		}
	}
}

func TestParseRejects(t *testing.T) {
	s := NewWebhookService("s3cret")

	body := []byte(`{"order_id":"` + uuid.NewString() + `","status":"completed"}`)
	if _, err := s.Parse("00", body); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}

	for _, raw := range []string{
		`not json`,
		`{"status":"completed"}`,
		`{"order_id":"` + uuid.NewString() + `","status":"shipped"}`,
	} {
		body := []byte(raw)
		if _, err := s.Parse(s.Sign(body), body); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("Parse(%s): expected ErrInvalidPayload, got %v", raw, err)
		}
	}
}
