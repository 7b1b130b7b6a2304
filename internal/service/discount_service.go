package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/repository"
)

// maxCodeAttempts bounds regeneration when a freshly generated code
// value collides with an existing row.
const maxCodeAttempts = 3

// DiscountQuote is the outcome of CalculateDiscount: how much a code
// takes off a total and what remains to pay.
type DiscountQuote struct {
	DiscountCents       int64
	RemainingToPayCents int64
}

// DiscountCodeService validates, reserves, applies and releases gift
// and promo codes.  A code's balance (GIFT) or use counter (PROMO) is a
// scarce resource guarded with the same decrement/verify/rollback
// pattern as session capacity, applied to the single code row.
// Reservation is provisional and symmetric with release; application is
// the permanent, payment-confirmed conversion and is idempotent per
// (code, booking) pair.
type DiscountCodeService struct {
	codes DiscountStore
	now   func() time.Time
}

// NewDiscountCodeService constructs a DiscountCodeService.
func NewDiscountCodeService(codes DiscountStore) *DiscountCodeService {
	return &DiscountCodeService{codes: codes, now: time.Now}
}

// CalculateDiscount returns how much the code takes off totalCents.
// Expired and exhausted codes are rejected.  A GIFT code discounts
// min(balance, total); a PROMO code discounts its percentage of the
// total or its fixed amount, never more than the total itself.
func (s *DiscountCodeService) CalculateDiscount(ctx context.Context, code string, totalCents int64) (DiscountQuote, error) {
	if totalCents < 0 {
		return DiscountQuote{}, fmt.Errorf("%w: negative total", ErrValidation)
	}
	d, err := s.load(ctx, code)
	if err != nil {
		return DiscountQuote{}, err
	}

	var discount int64
	switch d.Kind {
	case model.DiscountKindGift:
		if d.BalanceCents <= 0 {
			return DiscountQuote{}, fmt.Errorf("%w: no balance left", ErrDiscountInvalid)
		}
		discount = d.BalanceCents
	case model.DiscountKindPromo:
		if d.UsesRemaining <= 0 {
			return DiscountQuote{}, fmt.Errorf("%w: use limit reached", ErrDiscountInvalid)
		}
		if d.PercentOff > 0 {
			discount = totalCents * int64(d.PercentOff) / 100
		} else {
			discount = d.AmountOffCents
		}
	default:
		return DiscountQuote{}, fmt.Errorf("%w: unknown kind %q", ErrDiscountInvalid, d.Kind)
	}
	if discount > totalCents {
		discount = totalCents
	}
	return DiscountQuote{
		DiscountCents:       discount,
		RemainingToPayCents: totalCents - discount,
	}, nil
}

// ReserveCode provisionally spends amountCents of a GIFT balance or one
// PROMO use while the booking is pending.  The decrement is
// unconditional; the row is re-read and the decrement reversed when the
// counter went negative, in which case ErrDiscountConflict is returned.
func (s *DiscountCodeService) ReserveCode(ctx context.Context, code string, amountCents int64) error {
	d, err := s.load(ctx, code)
	if err != nil {
		return err
	}
	switch d.Kind {
	case model.DiscountKindGift:
		if err := s.codes.AdjustBalance(ctx, code, -amountCents); err != nil {
			return fmt.Errorf("reserve code %s: %w", code, err)
		}
		after, err := s.codes.GetByCode(ctx, code)
		if err != nil {
			s.rollbackReserve(ctx, d, amountCents)
			return fmt.Errorf("verify code %s: %w", code, err)
		}
		if after.BalanceCents < 0 {
			s.rollbackReserve(ctx, d, amountCents)
			return ErrDiscountConflict
		}
	case model.DiscountKindPromo:
		if err := s.codes.AdjustUses(ctx, code, -1); err != nil {
			return fmt.Errorf("reserve code %s: %w", code, err)
		}
		after, err := s.codes.GetByCode(ctx, code)
		if err != nil {
			s.rollbackReserve(ctx, d, amountCents)
			return fmt.Errorf("verify code %s: %w", code, err)
		}
		if after.UsesRemaining < 0 {
			s.rollbackReserve(ctx, d, amountCents)
			return ErrDiscountConflict
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrDiscountInvalid, d.Kind)
	}
	return nil
}

// ReleaseCode undoes a provisional reservation when a pending booking
// is cancelled or expires.  A code that no longer exists is tolerated;
// a reservation that was already converted by ApplyCode must not be
// released, which callers enforce by checking the booking's payment
// status first.
func (s *DiscountCodeService) ReleaseCode(ctx context.Context, code string, amountCents int64) error {
	d, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("release code %s: %w", code, err)
	}
	switch d.Kind {
	case model.DiscountKindGift:
		return s.codes.AdjustBalance(ctx, code, amountCents)
	case model.DiscountKindPromo:
		return s.codes.AdjustUses(ctx, code, 1)
	}
	return nil
}

// ApplyCode permanently converts a reservation once payment is
// confirmed.  The redemption row's (code, booking) unique key makes the
// conversion happen at most once: a redelivered confirmation gets
// ErrDiscountAlreadyApplied and must not decrement anything further.
// For GIFT codes the status moves to PARTIALLY_USED or EXHAUSTED based
// on the remaining balance.
func (s *DiscountCodeService) ApplyCode(ctx context.Context, code, bookingID string, amountCents int64) error {
	if err := s.codes.CreateRedemption(ctx, code, bookingID, amountCents); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrDiscountAlreadyApplied
		}
		return fmt.Errorf("apply code %s: %w", code, err)
	}
	d, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		// The redemption is recorded; the status refresh can catch up on
		// the next application.
		log.Printf("discount: re-read code %s after apply failed: %v", code, err)
		return nil
	}
	status := d.Status
	switch d.Kind {
	case model.DiscountKindGift:
		if d.BalanceCents <= 0 {
			status = model.DiscountExhausted
		} else {
			status = model.DiscountPartiallyUsed
		}
	case model.DiscountKindPromo:
		if d.UsesRemaining <= 0 {
			status = model.DiscountExhausted
		}
	}
	if status != d.Status {
		if err := s.codes.UpdateStatus(ctx, code, status); err != nil {
			log.Printf("discount: update status of code %s failed: %v", code, err)
		}
	}
	return nil
}

// GenerateGiftCodes creates n gift codes with the given stored value.
// Generated code values can collide with existing rows; each code
// retries with a fresh value up to maxCodeAttempts times before the
// whole batch fails.
func (s *DiscountCodeService) GenerateGiftCodes(ctx context.Context, n int, balanceCents int64, expiresAt *time.Time) ([]string, error) {
	if n < 1 || n > 500 {
		return nil, fmt.Errorf("%w: batch size must be between 1 and 500", ErrValidation)
	}
	if balanceCents < 1 {
		return nil, fmt.Errorf("%w: balance must be positive", ErrValidation)
	}
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var created string
		for attempt := 0; attempt < maxCodeAttempts; attempt++ {
			code, err := newGiftCodeValue()
			if err != nil {
				return codes, err
			}
			err = s.codes.Create(ctx, &model.DiscountCode{
				Code:         code,
				Kind:         model.DiscountKindGift,
				BalanceCents: balanceCents,
				Status:       model.DiscountActive,
				ExpiresAt:    expiresAt,
			})
			if err == nil {
				created = code
				break
			}
			if !errors.Is(err, repository.ErrDuplicate) {
				return codes, fmt.Errorf("create gift code: %w", err)
			}
		}
		if created == "" {
			return codes, fmt.Errorf("gift code generation exhausted %d attempts", maxCodeAttempts)
		}
		codes = append(codes, created)
	}
	return codes, nil
}

// load fetches a code and rejects it when unknown, expired or marked
// exhausted, before any counter is touched.
func (s *DiscountCodeService) load(ctx context.Context, code string) (*model.DiscountCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: empty code", ErrValidation)
	}
	d, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown code", ErrDiscountInvalid)
		}
		return nil, err
	}
	if d.Status == model.DiscountExhausted || d.Status == model.DiscountExpired {
		return nil, fmt.Errorf("%w: code is %s", ErrDiscountInvalid, strings.ToLower(d.Status))
	}
	if d.Expired(s.now()) {
		return nil, fmt.Errorf("%w: code expired", ErrDiscountInvalid)
	}
	return d, nil
}

func (s *DiscountCodeService) rollbackReserve(ctx context.Context, d *model.DiscountCode, amountCents int64) {
	var err error
	switch d.Kind {
	case model.DiscountKindGift:
		err = s.codes.AdjustBalance(ctx, d.Code, amountCents)
	case model.DiscountKindPromo:
		err = s.codes.AdjustUses(ctx, d.Code, 1)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Printf("discount: rollback of code %s failed: %v", d.Code, err)
	}
}

// newGiftCodeValue returns a short uppercase code like GIFT-3F9A21C4.
func newGiftCodeValue() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "GIFT-" + strings.ToUpper(hex.EncodeToString(b)), nil
}
