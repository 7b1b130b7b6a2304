package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/ferhatka/studio-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  A booking is a
// single row; the session set it holds is stored as a JSON array in the
// session_ids column so that creating, confirming and deleting a booking
// are each one single-row write.  The booking row itself is the lock
// that coordinates the checkout path, the payment webhook and the
// expiry reaper.  All timestamps are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a new booking row.  The caller supplies the UUID,
// status fields and the expiry deadline.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	ids, err := json.Marshal(b.SessionIDs)
	if err != nil {
		return err
	}
	var expires interface{}
	if b.ExpiresAt != nil {
		expires = b.ExpiresAt.UTC()
	}
	const q = `INSERT INTO bookings
	           (id, user_id, offering_id, session_ids, party_size, status, payment_status,
	            total_cents, currency, discount_code, discount_cents, contact_name, contact_email, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, q,
		b.ID, b.UserID, b.OfferingID, string(ids), b.PartySize, b.Status, b.PaymentStatus,
		b.TotalCents, b.Currency, nullIfEmpty(b.DiscountCode), b.DiscountCents,
		b.ContactName, b.ContactEmail, expires)
	return err
}

// GetByID returns a single booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	const q = `SELECT id, user_id, offering_id, session_ids, party_size, status, payment_status,
	                  total_cents, currency, discount_code, discount_cents, contact_name, contact_email,
	                  payment_ref, expires_at, created_at, updated_at
	           FROM bookings WHERE id = ?`
	row := r.db.QueryRowContext(ctx, q, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// ListByUser returns all bookings created by the given user, newest
// first.  When none exist an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT id, user_id, offering_id, session_ids, party_size, status, payment_status,
	                  total_cents, currency, discount_code, discount_cents, contact_name, contact_email,
	                  payment_ref, expires_at, created_at, updated_at
	           FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// ListExpired returns every booking still PENDING/UNPAID whose expiry
// deadline has passed.  The reaper treats each returned booking as an
// independent unit of work.
func (r *BookingRepo) ListExpired(ctx context.Context, now time.Time) ([]model.Booking, error) {
	const q = `SELECT id, user_id, offering_id, session_ids, party_size, status, payment_status,
	                  total_cents, currency, discount_code, discount_cents, contact_name, contact_email,
	                  payment_ref, expires_at, created_at, updated_at
	           FROM bookings
	           WHERE status = 'PENDING' AND payment_status = 'UNPAID' AND expires_at < ?
	           ORDER BY expires_at ASC`
	rows, err := r.db.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// SetPaymentRef stores the payment gateway's intent identifier on the
// booking once a payable intent has been created.
func (r *BookingRepo) SetPaymentRef(ctx context.Context, id, ref string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET payment_ref = ? WHERE id = ?`, ref, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkConfirmedPaid flips a booking to CONFIRMED/PAID and clears its
// expiry in one conditional single-row write.  The WHERE clause on
// payment_status makes the operation idempotent: a redelivered payment
// event affects zero rows and the method reports false without error.
func (r *BookingRepo) MarkConfirmedPaid(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE bookings
	           SET status = 'CONFIRMED', payment_status = 'PAID', expires_at = NULL
	           WHERE id = ? AND payment_status = 'UNPAID'`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a booking row.  Deleting a row that is already gone is
// not an error; cancellation and expiry tolerate "already gone".
func (r *BookingRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	return err
}

// rowScanner lets scanBooking work with both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b         model.Booking
		idsJSON   string
		code      sql.NullString
		payRef    sql.NullString
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.UserID, &b.OfferingID, &idsJSON, &b.PartySize, &b.Status, &b.PaymentStatus,
		&b.TotalCents, &b.Currency, &code, &b.DiscountCents, &b.ContactName, &b.ContactEmail,
		&payRef, &expiresAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &b.SessionIDs); err != nil {
		return nil, err
	}
	if code.Valid {
		b.DiscountCode = code.String
	}
	if payRef.Valid {
		ref := payRef.String
		b.PaymentRef = &ref
	}
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		b.ExpiresAt = &t
	}
	return &b, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
