package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ferhatka/studio-booking/internal/model"
)

// OfferingRepo provides CRUD operations for offerings.  An offering is
// the bookable product (a drop-in class or a multi-session course); its
// sessions live in the sessions table and are managed by SessionRepo.
// All timestamp fields are assumed to be stored in UTC.
type OfferingRepo struct {
	db *sql.DB
}

// NewOfferingRepo returns a new OfferingRepo bound to the given database.
func NewOfferingRepo(db *sql.DB) *OfferingRepo { return &OfferingRepo{db: db} }

// Create inserts a new offering.  The caller supplies the UUID so the
// row can be referenced before the insert round-trips.
func (r *OfferingRepo) Create(ctx context.Context, o *model.Offering) error {
	const q = `INSERT INTO offerings
	           (id, owner_id, title, description, kind, capacity, price_per_person_cents, currency)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		o.ID, o.OwnerID, o.Title, o.Description, o.Kind, o.Capacity, o.PricePerPersonCents, o.Currency)
	return err
}

// GetByID returns a single offering or ErrNotFound.
func (r *OfferingRepo) GetByID(ctx context.Context, id string) (*model.Offering, error) {
	const q = `SELECT id, owner_id, title, description, kind, capacity, price_per_person_cents, currency,
	                  created_at, updated_at
	           FROM offerings WHERE id = ?`
	var o model.Offering
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&o.ID, &o.OwnerID, &o.Title, &o.Description, &o.Kind, &o.Capacity,
		&o.PricePerPersonCents, &o.Currency, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// List returns all offerings ordered by creation time descending.  When
// none exist an empty slice is returned.
func (r *OfferingRepo) List(ctx context.Context) ([]model.Offering, error) {
	const q = `SELECT id, owner_id, title, description, kind, capacity, price_per_person_cents, currency,
	                  created_at, updated_at
	           FROM offerings ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	offerings := make([]model.Offering, 0)
	for rows.Next() {
		var o model.Offering
		if err := rows.Scan(
			&o.ID, &o.OwnerID, &o.Title, &o.Description, &o.Kind, &o.Capacity,
			&o.PricePerPersonCents, &o.Currency, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		offerings = append(offerings, o)
	}
	return offerings, rows.Err()
}

// touchUpdated bumps updated_at so list ordering reflects edits.  MySQL
// does this via ON UPDATE CURRENT_TIMESTAMP, but only when another
// column actually changes; sessions being rescheduled should surface
// the offering as fresh as well.
func (r *OfferingRepo) touchUpdated(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE offerings SET updated_at = ? WHERE id = ?`, at.UTC(), id)
	return err
}

// Touch marks the offering as updated now.
func (r *OfferingRepo) Touch(ctx context.Context, id string) error {
	return r.touchUpdated(ctx, id, time.Now())
}
