package service

import (
	"context"
	"time"

	"github.com/ferhatka/studio-booking/internal/model"
)

// The store interfaces below describe the single-row persistence
// operations the engine relies on.  internal/repository provides the
// MySQL implementations; tests substitute in-memory fakes.  None of the
// interfaces offers a multi-row transaction primitive: that constraint
// is what the reserve/verify/rollback protocol is built around.

// OfferingStore reads offerings.
type OfferingStore interface {
	GetByID(ctx context.Context, id string) (*model.Offering, error)
}

// SessionStore reads sessions and adjusts their capacity counters one
// row at a time.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (*model.Session, error)
	ListScheduledByOffering(ctx context.Context, offeringID string) ([]model.Session, error)
	AdjustSpots(ctx context.Context, id string, delta int) error
	SpotsRemaining(ctx context.Context, id string) (int, error)
}

// BookingStore persists bookings.  MarkConfirmedPaid is a conditional
// single-row write that reports whether the row actually transitioned.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListExpired(ctx context.Context, now time.Time) ([]model.Booking, error)
	SetPaymentRef(ctx context.Context, id, ref string) error
	MarkConfirmedPaid(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// DiscountStore persists discount codes, their scarce counters and the
// per-booking redemption records that make application idempotent.
type DiscountStore interface {
	Create(ctx context.Context, d *model.DiscountCode) error
	GetByCode(ctx context.Context, code string) (*model.DiscountCode, error)
	AdjustBalance(ctx context.Context, code string, deltaCents int64) error
	AdjustUses(ctx context.Context, code string, delta int) error
	UpdateStatus(ctx context.Context, code, status string) error
	CreateRedemption(ctx context.Context, code, bookingID string, amountCents int64) error
}

// Notifier publishes booking lifecycle events to the notification
// collaborator.  Publishing is fire-and-forget: failures are logged by
// the caller and never fail or roll back a booking.
type Notifier interface {
	PublishBookingConfirmed(ctx context.Context, b *model.Booking) error
	PublishBookingCancelled(ctx context.Context, b *model.Booking, reason string) error
}
