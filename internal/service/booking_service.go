package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/repository"
)

// DefaultBookingTTL is how long a pending, unpaid booking holds its
// capacity before the reaper may reclaim it.
const DefaultBookingTTL = 10 * time.Minute

// CreateBookingParams carries everything needed to start a booking.
// SessionID selects the target session for a SINGLE offering and is
// ignored for MULTI offerings, which always book every scheduled
// session of the course together.
type CreateBookingParams struct {
	UserID       uint64
	OfferingID   string
	SessionID    string
	PartySize    int
	ContactName  string
	ContactEmail string
	DiscountCode string
}

// ExpirySweepResult summarises one reaper run.
type ExpirySweepResult struct {
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

// BookingService orchestrates booking creation, confirmation,
// cancellation and expiry on top of CapacityService and
// DiscountCodeService.  The state machine is
// PENDING(UNPAID) → CONFIRMED(PAID) on payment, or
// PENDING(UNPAID) → deleted on cancellation/expiry; there is no
// PENDING(PAID) state and no path back from CONFIRMED here.  Capacity
// and discount balance are held provisionally while PENDING; the
// booking row itself is the lock between the request path, the payment
// webhook and the reaper.
type BookingService struct {
	offerings OfferingStore
	sessions  SessionStore
	bookings  BookingStore
	capacity  *CapacityService
	discounts *DiscountCodeService
	notifier  Notifier
	ttl       time.Duration
	now       func() time.Time
}

// NewBookingService constructs a BookingService.  notifier may be nil,
// in which case lifecycle events are not published.  A non-positive ttl
// falls back to DefaultBookingTTL.
func NewBookingService(
	offerings OfferingStore,
	sessions SessionStore,
	bookings BookingStore,
	capacity *CapacityService,
	discounts *DiscountCodeService,
	notifier Notifier,
	ttl time.Duration,
) *BookingService {
	if ttl <= 0 {
		ttl = DefaultBookingTTL
	}
	return &BookingService{
		offerings: offerings,
		sessions:  sessions,
		bookings:  bookings,
		capacity:  capacity,
		discounts: discounts,
		notifier:  notifier,
		ttl:       ttl,
		now:       time.Now,
	}
}

// CreatePendingBooking validates the request, reserves the discount
// code and then the capacity, and persists the booking as
// PENDING/UNPAID with an expiry deadline.  Acquisition is compensated
// on every failure path: a capacity conflict releases the reserved
// code, and a persistence failure releases the code and then the
// capacity, so a failed call never leaves an orphaned hold.
func (s *BookingService) CreatePendingBooking(ctx context.Context, p CreateBookingParams) (*model.Booking, error) {
	if err := validateCreateParams(&p); err != nil {
		return nil, err
	}

	offering, err := s.offerings.GetByID(ctx, p.OfferingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: offering %s", ErrNotFound, p.OfferingID)
		}
		return nil, fmt.Errorf("load offering: %w", err)
	}

	sessionIDs, err := s.resolveSessions(ctx, offering, p.SessionID)
	if err != nil {
		return nil, err
	}

	totalCents := offering.PricePerPersonCents * int64(p.PartySize)

	var discountCents int64
	if p.DiscountCode != "" {
		quote, err := s.discounts.CalculateDiscount(ctx, p.DiscountCode, totalCents)
		if err != nil {
			return nil, err
		}
		if err := s.discounts.ReserveCode(ctx, p.DiscountCode, quote.DiscountCents); err != nil {
			return nil, err
		}
		discountCents = quote.DiscountCents
	}

	if err := s.capacity.Reserve(ctx, sessionIDs, p.PartySize); err != nil {
		if p.DiscountCode != "" {
			s.releaseCode(ctx, p.DiscountCode, discountCents)
		}
		return nil, err
	}

	expiresAt := s.now().UTC().Add(s.ttl)
	booking := &model.Booking{
		ID:            uuid.New().String(),
		UserID:        p.UserID,
		OfferingID:    offering.ID,
		SessionIDs:    sessionIDs,
		PartySize:     p.PartySize,
		Status:        model.BookingPending,
		PaymentStatus: model.PaymentUnpaid,
		TotalCents:    totalCents,
		Currency:      offering.Currency,
		DiscountCode:  p.DiscountCode,
		DiscountCents: discountCents,
		ContactName:   p.ContactName,
		ContactEmail:  p.ContactEmail,
		ExpiresAt:     &expiresAt,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		// Compensate in reverse of the logical acquisition: the code
		// first, then the whole capacity set.
		if p.DiscountCode != "" {
			s.releaseCode(ctx, p.DiscountCode, discountCents)
		}
		if relErr := s.capacity.Release(ctx, sessionIDs, p.PartySize); relErr != nil {
			log.Printf("booking: capacity rollback after failed create: %v", relErr)
		}
		return nil, fmt.Errorf("persist booking: %w", err)
	}
	return booking, nil
}

// CancelBooking releases everything a pending booking holds and deletes
// it.  It is idempotent: a booking that is missing or no longer PENDING
// is a successful no-op, so the customer, the expired-payment event and
// the reaper can all race on the same booking safely.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID string) error {
	return s.cancel(ctx, bookingID, "cancelled")
}

// ConfirmPaid finalises a booking after payment has been confirmed (or
// when a discount covers the full amount).  The underlying conditional
// write only transitions UNPAID rows, so redelivered confirmations are
// no-ops.  Discount application is attempted on every delivery; its own
// (code, booking) idempotency guard prevents double-spending while
// letting a previously failed application catch up.
func (s *BookingService) ConfirmPaid(ctx context.Context, bookingID string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
		}
		return fmt.Errorf("load booking: %w", err)
	}

	transitioned, err := s.bookings.MarkConfirmedPaid(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("confirm booking %s: %w", bookingID, err)
	}

	if booking.DiscountCode != "" {
		err := s.discounts.ApplyCode(ctx, booking.DiscountCode, booking.ID, booking.DiscountCents)
		if err != nil && !errors.Is(err, ErrDiscountAlreadyApplied) {
			// The booking is confirmed either way; the redemption will be
			// retried on the next delivery of the confirmation event.
			log.Printf("booking: apply code %s to %s failed: %v", booking.DiscountCode, booking.ID, err)
		}
	}

	if transitioned && s.notifier != nil {
		booking.Status = model.BookingConfirmed
		booking.PaymentStatus = model.PaymentPaid
		booking.ExpiresAt = nil
		if err := s.notifier.PublishBookingConfirmed(ctx, booking); err != nil {
			log.Printf("booking: publish confirmation for %s failed: %v", booking.ID, err)
		}
	}
	return nil
}

// HandleExpiredBookings sweeps every PENDING/UNPAID booking whose
// deadline has passed and cancels each one independently.  A failure on
// one booking is counted and logged and the sweep moves on; the booking
// stays in place for the next run.  Running the sweep twice in a row
// changes nothing the second time.
func (s *BookingService) HandleExpiredBookings(ctx context.Context) (ExpirySweepResult, error) {
	var result ExpirySweepResult
	expired, err := s.bookings.ListExpired(ctx, s.now().UTC())
	if err != nil {
		return result, fmt.Errorf("list expired bookings: %w", err)
	}
	for _, b := range expired {
		if err := s.cancel(ctx, b.ID, "expired"); err != nil {
			result.Failed++
			log.Printf("booking: expire %s failed: %v", b.ID, err)
			continue
		}
		result.Expired++
	}
	return result, nil
}

// GetBooking loads a booking by id.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// cancel implements the shared release-and-delete used by explicit
// cancellation, the expired-payment event and the reaper.
func (s *BookingService) cancel(ctx context.Context, bookingID, reason string) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load booking: %w", err)
	}
	if booking.Status != model.BookingPending {
		return nil
	}

	if err := s.capacity.Release(ctx, booking.SessionIDs, booking.PartySize); err != nil {
		return fmt.Errorf("release capacity for %s: %w", bookingID, err)
	}
	if booking.DiscountCode != "" && booking.PaymentStatus != model.PaymentPaid {
		s.releaseCode(ctx, booking.DiscountCode, booking.DiscountCents)
	}
	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		return fmt.Errorf("delete booking %s: %w", bookingID, err)
	}

	if s.notifier != nil {
		if err := s.notifier.PublishBookingCancelled(ctx, booking, reason); err != nil {
			log.Printf("booking: publish cancellation for %s failed: %v", booking.ID, err)
		}
	}
	return nil
}

func (s *BookingService) releaseCode(ctx context.Context, code string, amountCents int64) {
	if err := s.discounts.ReleaseCode(ctx, code, amountCents); err != nil {
		log.Printf("booking: release code %s failed: %v", code, err)
	}
}

// resolveSessions turns the offering kind and optional session selector
// into the full set of sessions the booking must hold.  SINGLE requires
// one scheduled session of the offering; MULTI takes every scheduled
// session of the course as an indivisible unit.
func (s *BookingService) resolveSessions(ctx context.Context, offering *model.Offering, sessionID string) ([]string, error) {
	switch offering.Kind {
	case model.OfferingKindSingle:
		if sessionID == "" {
			return nil, fmt.Errorf("%w: session_id is required for this offering", ErrValidation)
		}
		sess, err := s.sessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
			}
			return nil, fmt.Errorf("load session: %w", err)
		}
		if sess.OfferingID != offering.ID {
			return nil, fmt.Errorf("%w: session does not belong to offering", ErrValidation)
		}
		if sess.Status != model.SessionScheduled {
			return nil, fmt.Errorf("%w: session is not open for booking", ErrValidation)
		}
		return []string{sess.ID}, nil
	case model.OfferingKindMulti:
		sessions, err := s.sessions.ListScheduledByOffering(ctx, offering.ID)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		if len(sessions) == 0 {
			return nil, fmt.Errorf("%w: offering has no scheduled sessions", ErrValidation)
		}
		ids := make([]string, 0, len(sessions))
		for _, sess := range sessions {
			ids = append(ids, sess.ID)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("%w: unknown offering kind %q", ErrValidation, offering.Kind)
}

func validateCreateParams(p *CreateBookingParams) error {
	p.ContactName = strings.TrimSpace(p.ContactName)
	p.ContactEmail = strings.TrimSpace(strings.ToLower(p.ContactEmail))
	p.DiscountCode = strings.TrimSpace(p.DiscountCode)
	if p.OfferingID == "" {
		return fmt.Errorf("%w: offering_id is required", ErrValidation)
	}
	if p.PartySize < 1 {
		return fmt.Errorf("%w: party_size must be at least 1", ErrValidation)
	}
	if p.ContactEmail == "" || !strings.Contains(p.ContactEmail, "@") {
		return fmt.Errorf("%w: a valid contact email is required", ErrValidation)
	}
	return nil
}
