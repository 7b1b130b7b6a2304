package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/payment"
)

func completedEvent(bookingID string) *payment.Event {
	return &payment.Event{
		ID:   "evt-1",
		Type: payment.EventCompleted,
		Data: payment.EventData{Booking: payment.NewBookingRef(bookingID)},
	}
}

func expiredEvent(bookingID string) *payment.Event {
	return &payment.Event{
		ID:   "evt-2",
		Type: payment.EventExpired,
		Data: payment.EventData{Booking: payment.NewBookingRef(bookingID)},
	}
}

func TestHandleCompletedEventConfirms(t *testing.T) {
	f := newFixture(t, []*model.Offering{singleOffering(1000)}, []*model.Session{scheduledSession("s1", 5)}, nil)
	svc := NewPaymentEventService(f.svc)

	b, err := f.svc.CreatePendingBooking(context.Background(), validParams())
	if err != nil {
		t.Fatalf("CreatePendingBooking: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), completedEvent(b.ID)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	got, _ := f.bookings.GetByID(context.Background(), b.ID)
	if got.Status != model.BookingConfirmed {
		t.Fatalf("status = %s, want CONFIRMED", got.Status)
	}

	// At-least-once delivery: the duplicate is acknowledged quietly.
	if err := svc.HandleEvent(context.Background(), completedEvent(b.ID)); err != nil {
		t.Fatalf("redelivered HandleEvent: %v", err)
	}
}

func TestHandleExpiredEventCancels(t *testing.T) {
	f := newFixture(t, []*model.Offering{singleOffering(1000)}, []*model.Session{scheduledSession("s1", 5)}, nil)
	svc := NewPaymentEventService(f.svc)

	b, err := f.svc.CreatePendingBooking(context.Background(), validParams())
	if err != nil {
		t.Fatalf("CreatePendingBooking: %v", err)
	}
	if err := svc.HandleEvent(context.Background(), expiredEvent(b.ID)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if got := f.sessions.spots("s1"); got != 5 {
		t.Fatalf("spots = %d, want 5 after expiry", got)
	}
	// Redelivery is a no-op.
	if err := svc.HandleEvent(context.Background(), expiredEvent(b.ID)); err != nil {
		t.Fatalf("redelivered HandleEvent: %v", err)
	}
	if got := f.sessions.spots("s1"); got != 5 {
		t.Fatalf("spots = %d, want 5 (no double release)", got)
	}
}

func TestHandleCompletedEventForMissingBookingAcks(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	svc := NewPaymentEventService(f.svc)

	// The reaper won the race; the event must be acknowledged so the
	// gateway stops redelivering.
	if err := svc.HandleEvent(context.Background(), completedEvent("gone")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}

func TestHandleEventWithoutBookingRef(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	svc := NewPaymentEventService(f.svc)

	ev := &payment.Event{ID: "evt-x", Type: payment.EventCompleted}
	if err := svc.HandleEvent(context.Background(), ev); !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestHandleUnknownEventTypeIgnored(t *testing.T) {
	f := newFixture(t, nil, nil, nil)
	svc := NewPaymentEventService(f.svc)

	ev := &payment.Event{ID: "evt-y", Type: "payment.refunded", Data: payment.EventData{Booking: payment.NewBookingRef("b1")}}
	if err := svc.HandleEvent(context.Background(), ev); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
}
