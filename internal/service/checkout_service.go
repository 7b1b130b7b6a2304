package service

import (
	"context"
	"fmt"
	"log"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/payment"
)

// CheckoutResult is what the boundary returns to the customer: the held
// booking, the amount still to pay and — when the gateway is involved —
// where to go to pay it.
type CheckoutResult struct {
	Booking        *model.Booking
	AmountDueCents int64
	PaymentRef     string
	RedirectURL    string
	Paid           bool
}

// CheckoutService is the entry point that turns a customer request into
// a held reservation plus a payable intent.  Bookings fully covered by
// a discount code skip the gateway and are confirmed synchronously, but
// only after going through the exact same reservation path as paid
// bookings; there is no second code path that could double-reserve
// spots.
type CheckoutService struct {
	bookings *BookingService
	store    BookingStore
	gateway  payment.Gateway
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(bookings *BookingService, store BookingStore, gateway payment.Gateway) *CheckoutService {
	return &CheckoutService{bookings: bookings, store: store, gateway: gateway}
}

// Checkout creates the pending booking and, when something remains to
// pay, asks the gateway for a payable intent carrying the booking id
// and session set as opaque metadata.  A gateway or persistence failure
// cancels the booking again so no capacity stays held for a checkout
// the customer never saw.
func (s *CheckoutService) Checkout(ctx context.Context, p CreateBookingParams) (*CheckoutResult, error) {
	booking, err := s.bookings.CreatePendingBooking(ctx, p)
	if err != nil {
		return nil, err
	}

	due := booking.AmountDueCents()
	if due == 0 {
		// Fully covered by the code: no gateway round-trip, confirm and
		// apply immediately.
		if err := s.bookings.ConfirmPaid(ctx, booking.ID); err != nil {
			return nil, fmt.Errorf("confirm zero-amount booking: %w", err)
		}
		booking.Status = model.BookingConfirmed
		booking.PaymentStatus = model.PaymentPaid
		booking.ExpiresAt = nil
		return &CheckoutResult{Booking: booking, AmountDueCents: 0, Paid: true}, nil
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountCents: due,
		Currency:    booking.Currency,
		Description: fmt.Sprintf("booking %s", booking.ID),
		Metadata: payment.IntentMetadata{
			BookingID:  booking.ID,
			SessionIDs: booking.SessionIDs,
		},
	})
	if err != nil {
		s.abandon(ctx, booking.ID)
		return nil, fmt.Errorf("create payable intent: %w", err)
	}

	if err := s.store.SetPaymentRef(ctx, booking.ID, intent.ID); err != nil {
		s.abandon(ctx, booking.ID)
		return nil, fmt.Errorf("store payment reference: %w", err)
	}
	booking.PaymentRef = &intent.ID

	return &CheckoutResult{
		Booking:        booking,
		AmountDueCents: due,
		PaymentRef:     intent.ID,
		RedirectURL:    intent.RedirectURL,
	}, nil
}

// abandon best-effort cancels a booking whose checkout failed after
// creation.  If the cancel itself fails the reaper collects the
// booking at its deadline.
func (s *CheckoutService) abandon(ctx context.Context, bookingID string) {
	if err := s.bookings.CancelBooking(ctx, bookingID); err != nil {
		log.Printf("checkout: cancel of abandoned booking %s failed (reaper will collect it): %v", bookingID, err)
	}
}
