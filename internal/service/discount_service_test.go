package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ferhatka/studio-booking/internal/model"
	"github.com/ferhatka/studio-booking/internal/repository"
)

func giftCode(code string, balance int64) *model.DiscountCode {
	return &model.DiscountCode{Code: code, Kind: model.DiscountKindGift, BalanceCents: balance, Status: model.DiscountActive}
}

func promoCode(code string, percent int, uses int) *model.DiscountCode {
	return &model.DiscountCode{Code: code, Kind: model.DiscountKindPromo, PercentOff: percent, UsesRemaining: uses, Status: model.DiscountActive}
}

func TestCalculateDiscount(t *testing.T) {
	fixed := &model.DiscountCode{
		Code: "FIXED5", Kind: model.DiscountKindPromo,
		AmountOffCents: 500, UsesRemaining: 3, Status: model.DiscountActive,
	}
	store := newFakeDiscountStore(giftCode("GIFT-BIG", 10000), giftCode("GIFT-SMALL", 300), promoCode("PCT20", 20, 5), fixed)
	svc := NewDiscountCodeService(store)

	tests := []struct {
		name          string
		code          string
		total         int64
		wantDiscount  int64
		wantRemaining int64
	}{
		{"gift covers part", "GIFT-SMALL", 2000, 300, 1700},
		{"gift capped at total", "GIFT-BIG", 2000, 2000, 0},
		{"promo percent", "PCT20", 2000, 400, 1600},
		{"promo fixed", "FIXED5", 2000, 500, 1500},
		{"promo fixed capped", "FIXED5", 400, 400, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.CalculateDiscount(context.Background(), tt.code, tt.total)
			if err != nil {
				t.Fatalf("CalculateDiscount: %v", err)
			}
			if q.DiscountCents != tt.wantDiscount || q.RemainingToPayCents != tt.wantRemaining {
				t.Fatalf("quote = %+v, want discount=%d remaining=%d", q, tt.wantDiscount, tt.wantRemaining)
			}
		})
	}
}

func TestCalculateDiscountRejectsUnusableCodes(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	expired := giftCode("OLD", 500)
	expired.ExpiresAt = &past
	spent := giftCode("SPENT", 500)
	spent.Status = model.DiscountExhausted

	store := newFakeDiscountStore(expired, spent)
	svc := NewDiscountCodeService(store)

	for _, code := range []string{"OLD", "SPENT", "NOPE"} {
		if _, err := svc.CalculateDiscount(context.Background(), code, 1000); !errors.Is(err, ErrDiscountInvalid) {
			t.Errorf("code %s: error = %v, want ErrDiscountInvalid", code, err)
		}
	}
	if _, err := svc.CalculateDiscount(context.Background(), "", 1000); !errors.Is(err, ErrValidation) {
		t.Errorf("empty code: error = %v, want ErrValidation", err)
	}
}

func TestReserveAndReleaseGiftCode(t *testing.T) {
	store := newFakeDiscountStore(giftCode("G", 1000))
	svc := NewDiscountCodeService(store)
	ctx := context.Background()

	if err := svc.ReserveCode(ctx, "G", 400); err != nil {
		t.Fatalf("ReserveCode: %v", err)
	}
	if got := store.codes["G"].BalanceCents; got != 600 {
		t.Fatalf("balance = %d, want 600", got)
	}
	if err := svc.ReleaseCode(ctx, "G", 400); err != nil {
		t.Fatalf("ReleaseCode: %v", err)
	}
	if got := store.codes["G"].BalanceCents; got != 1000 {
		t.Fatalf("balance = %d, want 1000 after release", got)
	}
}

func TestReserveCodeConflictRollsBack(t *testing.T) {
	// Two pending bookings try to spend the same 500-cent balance.  The
	// first takes 400; the second wants 300, overdraws and is reversed.
	store := newFakeDiscountStore(giftCode("G", 500))
	svc := NewDiscountCodeService(store)
	ctx := context.Background()

	if err := svc.ReserveCode(ctx, "G", 400); err != nil {
		t.Fatalf("first ReserveCode: %v", err)
	}
	err := svc.ReserveCode(ctx, "G", 300)
	if !errors.Is(err, ErrDiscountConflict) {
		t.Fatalf("second ReserveCode error = %v, want ErrDiscountConflict", err)
	}
	if got := store.codes["G"].BalanceCents; got != 100 {
		t.Fatalf("balance = %d, want 100 (only the winner's hold)", got)
	}
}

func TestReservePromoUseCounter(t *testing.T) {
	store := newFakeDiscountStore(promoCode("P", 10, 1))
	svc := NewDiscountCodeService(store)
	ctx := context.Background()

	if err := svc.ReserveCode(ctx, "P", 0); err != nil {
		t.Fatalf("ReserveCode: %v", err)
	}
	// CalculateDiscount sees no uses left even though the status column
	// has not changed yet.
	if _, err := svc.CalculateDiscount(ctx, "P", 1000); !errors.Is(err, ErrDiscountInvalid) {
		t.Fatalf("CalculateDiscount error = %v, want ErrDiscountInvalid", err)
	}
	if err := svc.ReleaseCode(ctx, "P", 0); err != nil {
		t.Fatalf("ReleaseCode: %v", err)
	}
	if got := store.codes["P"].UsesRemaining; got != 1 {
		t.Fatalf("uses = %d, want 1 after release", got)
	}
}

func TestApplyCodeIsIdempotentPerBooking(t *testing.T) {
	store := newFakeDiscountStore(giftCode("G", 600))
	svc := NewDiscountCodeService(store)
	ctx := context.Background()

	if err := svc.ReserveCode(ctx, "G", 600); err != nil {
		t.Fatalf("ReserveCode: %v", err)
	}
	if err := svc.ApplyCode(ctx, "G", "bk-1", 600); err != nil {
		t.Fatalf("first ApplyCode: %v", err)
	}
	if got := store.codes["G"].Status; got != model.DiscountExhausted {
		t.Fatalf("status = %s, want EXHAUSTED", got)
	}

	// Redelivered confirmation: the duplicate must not touch anything.
	err := svc.ApplyCode(ctx, "G", "bk-1", 600)
	if !errors.Is(err, ErrDiscountAlreadyApplied) {
		t.Fatalf("second ApplyCode error = %v, want ErrDiscountAlreadyApplied", err)
	}
	if got := store.codes["G"].BalanceCents; got != 0 {
		t.Fatalf("balance = %d, want 0", got)
	}
}

func TestApplyCodeMarksGiftPartiallyUsed(t *testing.T) {
	store := newFakeDiscountStore(giftCode("G", 1000))
	svc := NewDiscountCodeService(store)
	ctx := context.Background()

	if err := svc.ReserveCode(ctx, "G", 250); err != nil {
		t.Fatalf("ReserveCode: %v", err)
	}
	if err := svc.ApplyCode(ctx, "G", "bk-1", 250); err != nil {
		t.Fatalf("ApplyCode: %v", err)
	}
	if got := store.codes["G"].Status; got != model.DiscountPartiallyUsed {
		t.Fatalf("status = %s, want PARTIALLY_USED", got)
	}
	if got := store.codes["G"].BalanceCents; got != 750 {
		t.Fatalf("balance = %d, want 750", got)
	}
}

func TestGenerateGiftCodes(t *testing.T) {
	store := newFakeDiscountStore()
	svc := NewDiscountCodeService(store)

	codes, err := svc.GenerateGiftCodes(context.Background(), 5, 2500, nil)
	if err != nil {
		t.Fatalf("GenerateGiftCodes: %v", err)
	}
	if len(codes) != 5 {
		t.Fatalf("generated %d codes, want 5", len(codes))
	}
	for _, code := range codes {
		if !strings.HasPrefix(code, "GIFT-") {
			t.Errorf("code %q lacks GIFT- prefix", code)
		}
		d, ok := store.codes[code]
		if !ok {
			t.Fatalf("code %q not persisted", code)
		}
		if d.BalanceCents != 2500 || d.Kind != model.DiscountKindGift || d.Status != model.DiscountActive {
			t.Errorf("code %q persisted as %+v", code, d)
		}
	}
}

func TestGenerateGiftCodesRetriesCollisions(t *testing.T) {
	store := newFakeDiscountStore()
	// First two inserts collide, the third succeeds; still within the
	// per-code attempt budget.
	store.createErrs = []error{repository.ErrDuplicate, repository.ErrDuplicate, nil}
	svc := NewDiscountCodeService(store)

	codes, err := svc.GenerateGiftCodes(context.Background(), 1, 100, nil)
	if err != nil {
		t.Fatalf("GenerateGiftCodes: %v", err)
	}
	if len(codes) != 1 {
		t.Fatalf("generated %d codes, want 1", len(codes))
	}
}

func TestGenerateGiftCodesGivesUpAfterBoundedAttempts(t *testing.T) {
	store := newFakeDiscountStore()
	store.createErrs = []error{repository.ErrDuplicate, repository.ErrDuplicate, repository.ErrDuplicate}
	svc := NewDiscountCodeService(store)

	if _, err := svc.GenerateGiftCodes(context.Background(), 1, 100, nil); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
}

func TestGenerateGiftCodesValidation(t *testing.T) {
	svc := NewDiscountCodeService(newFakeDiscountStore())
	for _, tt := range []struct {
		n       int
		balance int64
	}{{0, 100}, {501, 100}, {1, 0}, {1, -50}} {
		if _, err := svc.GenerateGiftCodes(context.Background(), tt.n, tt.balance, nil); !errors.Is(err, ErrValidation) {
			t.Errorf("n=%d balance=%d: error = %v, want ErrValidation", tt.n, tt.balance, err)
		}
	}
}
