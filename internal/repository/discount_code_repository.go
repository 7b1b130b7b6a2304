package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/ferhatka/studio-booking/internal/model"
)

// DiscountCodeRepo provides data access to the discount_codes and
// discount_redemptions tables.  Like SessionRepo it exposes only
// single-row operations on the scarce columns (balance_cents for GIFT
// codes, uses_remaining for PROMO codes): an unconditional relative
// adjustment plus a point read.  The decrement/verify/rollback dance
// lives in the discount service.
type DiscountCodeRepo struct {
	db *sql.DB
}

// NewDiscountCodeRepo returns a new DiscountCodeRepo bound to the given database.
func NewDiscountCodeRepo(db *sql.DB) *DiscountCodeRepo { return &DiscountCodeRepo{db: db} }

// Create inserts a new discount code.  ErrDuplicate is returned when the
// code value already exists, so bulk generators can retry with a fresh
// value.
func (r *DiscountCodeRepo) Create(ctx context.Context, d *model.DiscountCode) error {
	var expires interface{}
	if d.ExpiresAt != nil {
		expires = d.ExpiresAt.UTC()
	}
	const q = `INSERT INTO discount_codes
	           (code, kind, balance_cents, percent_off, amount_off_cents, uses_remaining, status, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		d.Code, d.Kind, d.BalanceCents, d.PercentOff, d.AmountOffCents, d.UsesRemaining, d.Status, expires)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByCode returns a single discount code or ErrNotFound.
func (r *DiscountCodeRepo) GetByCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	const q = `SELECT code, kind, balance_cents, percent_off, amount_off_cents, uses_remaining,
	                  status, expires_at, created_at
	           FROM discount_codes WHERE code = ?`
	var (
		d         model.DiscountCode
		expiresAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, code).Scan(
		&d.Code, &d.Kind, &d.BalanceCents, &d.PercentOff, &d.AmountOffCents, &d.UsesRemaining,
		&d.Status, &expiresAt, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		d.ExpiresAt = &t
	}
	return &d, nil
}

// AdjustBalance applies a relative change to a GIFT code's balance as an
// unconditional single-row write.  The value may transiently go
// negative; callers re-read and compensate.
func (r *DiscountCodeRepo) AdjustBalance(ctx context.Context, code string, deltaCents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE discount_codes SET balance_cents = balance_cents + ? WHERE code = ?`, deltaCents, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustUses applies a relative change to a PROMO code's use counter.
func (r *DiscountCodeRepo) AdjustUses(ctx context.Context, code string, delta int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE discount_codes SET uses_remaining = uses_remaining + ? WHERE code = ?`, delta, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the code's lifecycle status (ACTIVE, PARTIALLY_USED,
// EXHAUSTED, EXPIRED).
func (r *DiscountCodeRepo) UpdateStatus(ctx context.Context, code, status string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE discount_codes SET status = ? WHERE code = ?`, status, code)
	return err
}

// CreateRedemption records the permanent application of a code to a
// booking.  The (code, booking_id) pair carries a unique key, so a
// redelivered payment confirmation inserts zero rows and ErrDuplicate
// is returned instead; callers treat that as "already applied".
func (r *DiscountCodeRepo) CreateRedemption(ctx context.Context, code, bookingID string, amountCents int64) error {
	const q = `INSERT INTO discount_redemptions (code, booking_id, amount_cents) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, code, bookingID, amountCents)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
