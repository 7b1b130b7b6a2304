// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into customer
// notifications.
package queue

// Queue names used on the broker.
const (
	QueueBookingConfirmed = "booking.confirmed"
	QueueBookingCancelled = "booking.cancelled"
)

// BookingConfirmedEvent is published when a booking is confirmed and
// paid.  It carries enough information for downstream consumers to
// notify the customer without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     string   `json:"booking_id"`
	UserID        uint64   `json:"user_id"`
	OfferingID    string   `json:"offering_id"`
	SessionIDs    []string `json:"session_ids"`
	PartySize     int      `json:"party_size"`
	TotalCents    int64    `json:"total_cents"`
	DiscountCents int64    `json:"discount_cents"`
	Currency      string   `json:"currency"`
	ContactName   string   `json:"contact_name"`
	ContactEmail  string   `json:"contact_email"`
	ConfirmedAt   string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a pending booking is
// cancelled by the customer, by an expired payment or by the reaper.
type BookingCancelledEvent struct {
	BookingID    string   `json:"booking_id"`
	UserID       uint64   `json:"user_id"`
	OfferingID   string   `json:"offering_id"`
	SessionIDs   []string `json:"session_ids"`
	PartySize    int      `json:"party_size"`
	Reason       string   `json:"reason"`
	ContactEmail string   `json:"contact_email"`
	CancelledAt  string   `json:"cancelled_at"`
}
