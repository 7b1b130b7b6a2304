package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ferhatka/studio-booking/internal/model"
)

// SessionRepo provides data access to the sessions table.  A session's
// available_spots column is the capacity counter the booking engine
// contends on.  The repository deliberately exposes only single-row
// operations against it: an unconditional relative adjustment plus a
// point read.  Multi-session effects (reserving a whole course) are the
// capacity service's job and are built out of these primitives.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the provided database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a new session row.  Sessions are created when an
// offering's schedule is computed, never by the booking engine.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `INSERT INTO sessions (id, offering_id, starts_at, ends_at, available_spots, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q,
		s.ID, s.OfferingID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.AvailableSpots, s.Status)
	return err
}

// GetByID returns a single session or ErrNotFound.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	const q = `SELECT id, offering_id, starts_at, ends_at, available_spots, status, created_at
	           FROM sessions WHERE id = ?`
	var s model.Session
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.OfferingID, &s.StartsAt, &s.EndsAt, &s.AvailableSpots, &s.Status, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListScheduledByOffering returns every SCHEDULED session of an offering
// ordered by start time.  For a MULTI offering this is the full set a
// course booking must hold.
func (r *SessionRepo) ListScheduledByOffering(ctx context.Context, offeringID string) ([]model.Session, error) {
	const q = `SELECT id, offering_id, starts_at, ends_at, available_spots, status, created_at
	           FROM sessions
	           WHERE offering_id = ? AND status = 'SCHEDULED'
	           ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, offeringID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.Session, 0)
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(
			&s.ID, &s.OfferingID, &s.StartsAt, &s.EndsAt, &s.AvailableSpots, &s.Status, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// AdjustSpots applies a relative change to available_spots as one
// unconditional single-row write.  A negative delta reserves spots, a
// positive delta releases them.  The column may transiently go negative;
// the caller is expected to re-read via SpotsRemaining and compensate.
// ErrNotFound is returned when the session row does not exist.
func (r *SessionRepo) AdjustSpots(ctx context.Context, id string, delta int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET available_spots = available_spots + ? WHERE id = ?`, delta, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SpotsRemaining reads back available_spots for the verification step of
// the reserve protocol.
func (r *SessionRepo) SpotsRemaining(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT available_spots FROM sessions WHERE id = ?`, id).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return n, nil
}

// UpdateStatus transitions a session's lifecycle status.
func (r *SessionRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
