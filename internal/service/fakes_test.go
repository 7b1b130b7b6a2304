package service

// In-memory store fakes.  They implement the same single-row contract as
// the MySQL repositories, including the ability for counters to go
// transiently negative, so the compensation paths can be exercised
// without a database.  Hooks let individual tests inject failures or
// interleave a concurrent actor between two store calls.

import (
	"context"
	"time"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/repository"
)

type fakeOfferingStore struct {
	offerings map[string]*model.Offering
}

func newFakeOfferingStore(offerings ...*model.Offering) *fakeOfferingStore {
	m := make(map[string]*model.Offering)
	for _, o := range offerings {
		m[o.ID] = o
	}
	return &fakeOfferingStore{offerings: m}
}

func (f *fakeOfferingStore) GetByID(ctx context.Context, id string) (*model.Offering, error) {
	o, ok := f.offerings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

type fakeSessionStore struct {
	sessions map[string]*model.Session
	// onAdjust runs before the delta is applied; returning a non-nil
	// error aborts the write.  Used to inject persistence failures and
	// concurrent writers at exact points in the protocol.
	onAdjust func(id string, delta int) error
	adjusts  []string
}

func newFakeSessionStore(sessions ...*model.Session) *fakeSessionStore {
	m := make(map[string]*model.Session)
	for _, s := range sessions {
		m[s.ID] = s
	}
	return &fakeSessionStore{sessions: m}
}

func (f *fakeSessionStore) GetByID(ctx context.Context, id string) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) ListScheduledByOffering(ctx context.Context, offeringID string) ([]model.Session, error) {
	out := make([]model.Session, 0)
	for _, s := range f.sessions {
		if s.OfferingID == offeringID && s.Status == model.SessionScheduled {
			out = append(out, *s)
		}
	}
	// Deterministic order for assertions.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].ID < out[i].ID {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeSessionStore) AdjustSpots(ctx context.Context, id string, delta int) error {
	if f.onAdjust != nil {
		if err := f.onAdjust(id, delta); err != nil {
			return err
		}
	}
	s, ok := f.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.AvailableSpots += delta
	f.adjusts = append(f.adjusts, id)
	return nil
}

func (f *fakeSessionStore) SpotsRemaining(ctx context.Context, id string) (int, error) {
	s, ok := f.sessions[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return s.AvailableSpots, nil
}

func (f *fakeSessionStore) spots(id string) int {
	return f.sessions[id].AvailableSpots
}

type fakeBookingStore struct {
	bookings  map[string]*model.Booking
	createErr error
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[string]*model.Booking)}
}

func (f *fakeBookingStore) Create(ctx context.Context, b *model.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookingStore) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingStore) ListExpired(ctx context.Context, now time.Time) ([]model.Booking, error) {
	out := make([]model.Booking, 0)
	for _, b := range f.bookings {
		if b.Status == model.BookingPending && b.PaymentStatus == model.PaymentUnpaid &&
			b.ExpiresAt != nil && b.ExpiresAt.Before(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) SetPaymentRef(ctx context.Context, id, ref string) error {
	b, ok := f.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	b.PaymentRef = &ref
	return nil
}

func (f *fakeBookingStore) MarkConfirmedPaid(ctx context.Context, id string) (bool, error) {
	b, ok := f.bookings[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if b.PaymentStatus != model.PaymentUnpaid {
		return false, nil
	}
	b.Status = model.BookingConfirmed
	b.PaymentStatus = model.PaymentPaid
	b.ExpiresAt = nil
	return true, nil
}

func (f *fakeBookingStore) Delete(ctx context.Context, id string) error {
	delete(f.bookings, id)
	return nil
}

type fakeDiscountStore struct {
	codes       map[string]*model.DiscountCode
	redemptions map[string]int64 // code + "/" + bookingID -> amount
	createErrs  []error          // popped per Create call when non-empty
}

func newFakeDiscountStore(codes ...*model.DiscountCode) *fakeDiscountStore {
	m := make(map[string]*model.DiscountCode)
	for _, d := range codes {
		m[d.Code] = d
	}
	return &fakeDiscountStore{codes: m, redemptions: make(map[string]int64)}
}

func (f *fakeDiscountStore) Create(ctx context.Context, d *model.DiscountCode) error {
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, exists := f.codes[d.Code]; exists {
		return repository.ErrDuplicate
	}
	cp := *d
	f.codes[d.Code] = &cp
	return nil
}

func (f *fakeDiscountStore) GetByCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	d, ok := f.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDiscountStore) AdjustBalance(ctx context.Context, code string, deltaCents int64) error {
	d, ok := f.codes[code]
	if !ok {
		return repository.ErrNotFound
	}
	d.BalanceCents += deltaCents
	return nil
}

func (f *fakeDiscountStore) AdjustUses(ctx context.Context, code string, delta int) error {
	d, ok := f.codes[code]
	if !ok {
		return repository.ErrNotFound
	}
	d.UsesRemaining += delta
	return nil
}

func (f *fakeDiscountStore) UpdateStatus(ctx context.Context, code, status string) error {
	d, ok := f.codes[code]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = status
	return nil
}

func (f *fakeDiscountStore) CreateRedemption(ctx context.Context, code, bookingID string, amountCents int64) error {
	key := code + "/" + bookingID
	if _, exists := f.redemptions[key]; exists {
		return repository.ErrDuplicate
	}
	f.redemptions[key] = amountCents
	return nil
}

type publishedEvent struct {
	kind    string // "confirmed" | "cancelled"
	booking string
	reason  string
}

type fakeNotifier struct {
	events []publishedEvent
}

func (f *fakeNotifier) PublishBookingConfirmed(ctx context.Context, b *model.Booking) error {
	f.events = append(f.events, publishedEvent{kind: "confirmed", booking: b.ID})
	return nil
}

func (f *fakeNotifier) PublishBookingCancelled(ctx context.Context, b *model.Booking, reason string) error {
	f.events = append(f.events, publishedEvent{kind: "cancelled", booking: b.ID, reason: reason})
	return nil
}
