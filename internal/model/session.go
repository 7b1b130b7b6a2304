package model

import "time"

// Session statuses.
const (
	SessionScheduled = "SCHEDULED"
	SessionCancelled = "CANCELLED"
	SessionCompleted = "COMPLETED"
)

// Session is one scheduled, capacity-bearing occurrence of an Offering.
// AvailableSpots is the only mutable field and is adjusted exclusively
// through the capacity reserve/release protocol; it must never be
// negative at rest.  Sessions are created when an offering's schedule is
// computed, never by the booking engine itself.
type Session struct {
	ID             string    // sessions.id
	OfferingID     string    // sessions.offering_id
	StartsAt       time.Time // sessions.starts_at
	EndsAt         time.Time // sessions.ends_at
	AvailableSpots int       // sessions.available_spots
	Status         string    // sessions.status
	CreatedAt      time.Time // sessions.created_at
}
