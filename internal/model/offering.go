package model

import "time"

// Offering kinds.  A SINGLE offering is booked one session at a time; a
// MULTI offering is a course whose scheduled sessions are always booked
// together as a unit.
const (
	OfferingKindSingle = "SINGLE"
	OfferingKindMulti  = "MULTI"
)

// Offering is a bookable product: a drop-in class or a multi-session
// course.  Capacity applies per session; the price is per person and is
// multiplied by the party size at checkout.
//
// Fields:
//  ID                  – primary key (UUID).
//  OwnerID             – user who manages the offering.
//  Title               – display name.
//  Description         – optional free text.
//  Kind                – SINGLE or MULTI.
//  Capacity            – spots per session when (re)scheduling.
//  PricePerPersonCents – price per attendee in cents.
//  Currency            – ISO 4217 code, e.g. "EUR".
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Offering struct {
	ID                  string    // offerings.id
	OwnerID             uint64    // offerings.owner_id
	Title               string    // offerings.title
	Description         string    // offerings.description
	Kind                string    // offerings.kind
	Capacity            int       // offerings.capacity
	PricePerPersonCents int64     // offerings.price_per_person_cents
	Currency            string    // offerings.currency
	CreatedAt           time.Time // offerings.created_at
	UpdatedAt           time.Time // offerings.updated_at
}
