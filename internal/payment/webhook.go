package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// Event types delivered by the provider.  Both are at-least-once:
// handlers must be idempotent against redelivery.
const (
	EventCompleted = "payment.completed"
	EventExpired   = "payment.expired"
)

// ErrSignatureInvalid is returned when a webhook body does not match
// its signature header.  The event must be rejected with no side
// effects.
var ErrSignatureInvalid = errors.New("invalid webhook signature")

// BookingRef is the provider's reference to the booking being paid.
// Depending on the provider's API version the field arrives either as
// a bare id string or as an embedded object carrying the id; BookingRef
// absorbs both shapes so the rest of the engine only ever sees ID().
type BookingRef struct {
	id string
}

// NewBookingRef builds a reference from a bare id.
func NewBookingRef(id string) BookingRef { return BookingRef{id: id} }

// ID resolves the reference to the booking id.
func (r BookingRef) ID() string { return r.id }

// UnmarshalJSON accepts `"abc"` as well as `{"id": "abc", ...}`.
func (r *BookingRef) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		r.id = plain
		return nil
	}
	var embedded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &embedded); err != nil {
		return fmt.Errorf("booking reference: %w", err)
	}
	if embedded.ID == "" {
		return errors.New("booking reference: missing id")
	}
	r.id = embedded.ID
	return nil
}

// MarshalJSON always emits the bare id form.
func (r BookingRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.id)
}

// EventData is the payload carried by an Event.
type EventData struct {
	Booking     BookingRef `json:"booking"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
}

// Event is a verified webhook payload.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// Sign computes the hex HMAC-SHA256 signature of body under secret.
// Exposed so tests and local tooling can produce valid headers.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyAndParse checks the signature header against the raw body and
// only then decodes the event.  ErrSignatureInvalid is returned before
// any of the payload is interpreted.
func VerifyAndParse(secret, signature string, body []byte) (*Event, error) {
	expected := Sign(secret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrSignatureInvalid
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.Type == "" {
		return nil, errors.New("decode event: missing type")
	}
	return &ev, nil
}
