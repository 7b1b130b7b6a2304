package model

import "time"

// Discount code kinds.  A GIFT code carries a stored-value balance that
// is spent down and released back on cancellation.  A PROMO code carries
// a use counter plus a percentage or fixed amount off; once applied it is
// not refundable, only while merely reserved.
const (
	DiscountKindGift  = "GIFT"
	DiscountKindPromo = "PROMO"
)

// Discount code statuses.
const (
	DiscountActive        = "ACTIVE"
	DiscountPartiallyUsed = "PARTIALLY_USED"
	DiscountExhausted     = "EXHAUSTED"
	DiscountExpired       = "EXPIRED"
)

// DiscountCode reduces a booking's payable amount.  BalanceCents is the
// scarce resource for GIFT codes, UsesRemaining for PROMO codes; both are
// mutated with the same decrement/verify/rollback protocol as session
// capacity so two concurrent bookings cannot over-spend the same code.
type DiscountCode struct {
	Code           string     // discount_codes.code (unique)
	Kind           string     // discount_codes.kind
	BalanceCents   int64      // discount_codes.balance_cents (GIFT)
	PercentOff     int        // discount_codes.percent_off (PROMO, 0-100)
	AmountOffCents int64      // discount_codes.amount_off_cents (PROMO fixed)
	UsesRemaining  int        // discount_codes.uses_remaining (PROMO)
	Status         string     // discount_codes.status
	ExpiresAt      *time.Time // discount_codes.expires_at (nullable)
	CreatedAt      time.Time  // discount_codes.created_at
}

// Expired reports whether the code's expiry has passed at the given
// instant.  Codes without an expiry never expire.
func (d *DiscountCode) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}
