package model

import "time"

// Booking statuses.  There is no PENDING+PAID combination: capacity and
// discount balance are held provisionally while PENDING, and payment
// confirmation moves the booking straight to CONFIRMED.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Payment statuses for a booking.
const (
	PaymentUnpaid   = "UNPAID"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
	PaymentFailed   = "FAILED"
)

// Booking is a customer's reservation attempt against one or more
// sessions of a single offering.  The session set is fixed at creation
// and capacity effects always apply to the whole set as a unit.  While
// the booking is PENDING/UNPAID it carries an expiry deadline after
// which the reaper reclaims its capacity.
//
// Fields:
//  ID                  – primary key (UUID).
//  UserID              – customer who started the checkout.
//  OfferingID          – offering being booked.
//  SessionIDs          – full set of sessions held by this booking.
//  PartySize           – number of spots held on every session.
//  Status              – PENDING, CONFIRMED or CANCELLED.
//  PaymentStatus       – UNPAID, PAID, REFUNDED or FAILED.
//  TotalCents          – undiscounted total (price per person × party size).
//  Currency            – copied from the offering at checkout time.
//  DiscountCode        – code reserved for this booking, if any.
//  DiscountCents       – amount the code takes off TotalCents.
//  ContactName/Email   – who to notify about the booking.
//  PaymentRef          – payment gateway intent identifier, once created.
//  ExpiresAt           – deadline while PENDING/UNPAID; nil afterwards.
//  CreatedAt/UpdatedAt – row timestamps.
type Booking struct {
	ID            string     // bookings.id
	UserID        uint64     // bookings.user_id
	OfferingID    string     // bookings.offering_id
	SessionIDs    []string   // bookings.session_ids (JSON array)
	PartySize     int        // bookings.party_size
	Status        string     // bookings.status
	PaymentStatus string     // bookings.payment_status
	TotalCents    int64      // bookings.total_cents
	Currency      string     // bookings.currency
	DiscountCode  string     // bookings.discount_code (empty when none)
	DiscountCents int64      // bookings.discount_cents
	ContactName   string     // bookings.contact_name
	ContactEmail  string     // bookings.contact_email
	PaymentRef    *string    // bookings.payment_ref (nullable)
	ExpiresAt     *time.Time // bookings.expires_at (nullable)
	CreatedAt     time.Time  // bookings.created_at
	UpdatedAt     time.Time  // bookings.updated_at
}

// AmountDueCents is what the customer still has to pay after the
// reserved discount is taken off.  Never negative.
func (b *Booking) AmountDueCents() int64 {
	due := b.TotalCents - b.DiscountCents
	if due < 0 {
		return 0
	}
	return due
}
