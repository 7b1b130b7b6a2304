package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/payment"
)

// fakeGateway records intent requests and can be told to fail.
type fakeGateway struct {
	requests []payment.IntentRequest
	err      error
}

func (g *fakeGateway) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &payment.Intent{ID: "pi_123", RedirectURL: "https://pay.example.com/pi_123"}, nil
}

func newCheckoutFixture(t *testing.T, codes []*model.DiscountCode) (*fixture, *fakeGateway, *CheckoutService) {
	t.Helper()
	f := newFixture(t, []*model.Offering{singleOffering(1000)}, []*model.Session{scheduledSession("s1", 5)}, codes)
	gw := &fakeGateway{}
	return f, gw, NewCheckoutService(f.svc, f.bookings, gw)
}

func TestCheckoutCreatesIntent(t *testing.T) {
	f, gw, co := newCheckoutFixture(t, nil)

	res, err := co.Checkout(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if res.Paid {
		t.Error("booking reported paid before any payment")
	}
	if res.AmountDueCents != 2000 {
		t.Errorf("amount due = %d, want 2000", res.AmountDueCents)
	}
	if res.PaymentRef != "pi_123" || res.RedirectURL == "" {
		t.Errorf("result = %+v, want gateway intent wired in", res)
	}
	if len(gw.requests) != 1 {
		t.Fatalf("gateway called %d times, want 1", len(gw.requests))
	}
	req := gw.requests[0]
	if req.Metadata.BookingID != res.Booking.ID || len(req.Metadata.SessionIDs) != 1 {
		t.Errorf("intent metadata = %+v, want booking id and session set", req.Metadata)
	}
	stored, err := f.bookings.GetByID(context.Background(), res.Booking.ID)
	if err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}
	if stored.PaymentRef == nil || *stored.PaymentRef != "pi_123" {
		t.Errorf("payment ref not stored: %v", stored.PaymentRef)
	}
}

func TestCheckoutZeroAmountConfirmsWithoutGateway(t *testing.T) {
	f, gw, co := newCheckoutFixture(t, []*model.DiscountCode{giftCode("FULL", 5000)})

	p := validParams()
	p.DiscountCode = "FULL"

	res, err := co.Checkout(context.Background(), p)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !res.Paid || res.AmountDueCents != 0 {
		t.Fatalf("result = %+v, want paid with nothing due", res)
	}
	if len(gw.requests) != 0 {
		t.Errorf("gateway called %d times, want 0", len(gw.requests))
	}
	stored, _ := f.bookings.GetByID(context.Background(), res.Booking.ID)
	if stored.Status != model.BookingConfirmed || stored.PaymentStatus != model.PaymentPaid {
		t.Fatalf("state = %s/%s, want CONFIRMED/PAID", stored.Status, stored.PaymentStatus)
	}
	// The gift value was applied, not just reserved: 2000 of 5000 spent.
	if got := f.discounts.codes["FULL"].BalanceCents; got != 3000 {
		t.Errorf("gift balance = %d, want 3000", got)
	}
	if _, ok := f.discounts.redemptions["FULL/"+res.Booking.ID]; !ok {
		t.Error("redemption not recorded for zero-amount checkout")
	}
}

func TestCheckoutGatewayFailureCancelsBooking(t *testing.T) {
	f, gw, co := newCheckoutFixture(t, nil)
	gw.err = errors.New("gateway down")

	if _, err := co.Checkout(context.Background(), validParams()); err == nil {
		t.Fatal("expected error when gateway fails")
	}
	// No booking survives and the spots are back.
	if n := len(f.bookings.bookings); n != 0 {
		t.Errorf("%d bookings persisted, want 0", n)
	}
	if got := f.sessions.spots("s1"); got != 5 {
		t.Errorf("spots = %d, want 5 after cancel", got)
	}
}

func TestCheckoutCapacityConflictSurfacesRetryable(t *testing.T) {
	f, _, co := newCheckoutFixture(t, nil)
	f.sessions.sessions["s1"].AvailableSpots = 1

	_, err := co.Checkout(context.Background(), validParams()) // party of 2
	if !errors.Is(err, ErrCapacityConflict) {
		t.Fatalf("error = %v, want ErrCapacityConflict", err)
	}
	if got := f.sessions.spots("s1"); got != 1 {
		t.Errorf("spots = %d, want 1 untouched", got)
	}
}
