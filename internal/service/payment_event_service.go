package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ferhatka/studio-booking/internal/payment"
)

// PaymentEventService reconciles bookings against the payment
// gateway's at-least-once event stream.  Every branch is an idempotent
// status check rather than a lock: a completed event for an already
// paid booking and an expired event for an already deleted booking are
// both successful no-ops, so redelivery is always safe to acknowledge.
type PaymentEventService struct {
	bookings *BookingService
}

// NewPaymentEventService constructs a PaymentEventService.
func NewPaymentEventService(bookings *BookingService) *PaymentEventService {
	return &PaymentEventService{bookings: bookings}
}

// HandleEvent dispatches one verified gateway event.  The caller has
// already checked the signature; events that reach here are trusted.
func (s *PaymentEventService) HandleEvent(ctx context.Context, ev *payment.Event) error {
	bookingID := ev.Data.Booking.ID()
	if bookingID == "" {
		return fmt.Errorf("%w: event %s has no booking reference", ErrValidation, ev.ID)
	}

	switch ev.Type {
	case payment.EventCompleted:
		err := s.bookings.ConfirmPaid(ctx, bookingID)
		if errors.Is(err, ErrNotFound) {
			// The booking was reclaimed before the payment landed.  Refund
			// handling is a separate flow; acknowledge so the gateway
			// stops redelivering.
			log.Printf("payment: completed event %s for missing booking %s", ev.ID, bookingID)
			return nil
		}
		return err
	case payment.EventExpired:
		return s.bookings.CancelBooking(ctx, bookingID)
	default:
		log.Printf("payment: ignoring event %s of unknown type %q", ev.ID, ev.Type)
		return nil
	}
}
