package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ferhatka/studio-booking/internal/repository"
)

// CapacityService reserves and releases spots across a set of sessions
// as a unit.  The store cannot decrement several rows atomically, so
// Reserve applies an unconditional decrement to every session, re-reads
// the whole set, and rolls the whole set back if any row went negative.
// The protocol always detects overbooking (spots are never negative at
// rest) but under contention it may roll back a request that would have
// fit with a different interleaving; that false rollback is the price
// of the missing multi-row primitive and is why ErrCapacityConflict is
// retryable.
type CapacityService struct {
	sessions SessionStore
}

// NewCapacityService constructs a CapacityService.
func NewCapacityService(sessions SessionStore) *CapacityService {
	return &CapacityService{sessions: sessions}
}

// Reserve holds count spots on every session in sessionIDs.  It either
// succeeds on the full set or leaves every session at its prior value.
// ErrCapacityConflict is returned when any session would go negative;
// other errors indicate a persistence failure, after which the sessions
// already decremented have been compensated.
func (s *CapacityService) Reserve(ctx context.Context, sessionIDs []string, count int) error {
	if len(sessionIDs) == 0 {
		return fmt.Errorf("%w: empty session set", ErrValidation)
	}
	if count < 1 {
		return fmt.Errorf("%w: count must be >= 1", ErrValidation)
	}

	// Phase 1: unconditional decrement of every row in the set.
	decremented := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		if err := s.sessions.AdjustSpots(ctx, id, -count); err != nil {
			s.compensate(ctx, decremented, count)
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: session %s", ErrNotFound, id)
			}
			return fmt.Errorf("reserve session %s: %w", id, err)
		}
		decremented = append(decremented, id)
	}

	// Phase 2: verification read of the full set.  A negative value
	// means a concurrent reservation won the race; the entire set is
	// rolled back, not only the negative row.
	for _, id := range sessionIDs {
		remaining, err := s.sessions.SpotsRemaining(ctx, id)
		if err != nil {
			s.compensate(ctx, sessionIDs, count)
			return fmt.Errorf("verify session %s: %w", id, err)
		}
		if remaining < 0 {
			s.compensate(ctx, sessionIDs, count)
			return ErrCapacityConflict
		}
	}
	return nil
}

// Release gives back count spots on every session in the set.  A
// session that no longer exists is skipped, which makes Release safe to
// call again after a partial prior failure.  The first persistence
// error is returned after every session has been attempted.
func (s *CapacityService) Release(ctx context.Context, sessionIDs []string, count int) error {
	if count < 1 {
		return fmt.Errorf("%w: count must be >= 1", ErrValidation)
	}
	var firstErr error
	for _, id := range sessionIDs {
		err := s.sessions.AdjustSpots(ctx, id, count)
		if err == nil || errors.Is(err, repository.ErrNotFound) {
			continue
		}
		log.Printf("capacity: release session %s failed: %v", id, err)
		if firstErr == nil {
			firstErr = fmt.Errorf("release session %s: %w", id, err)
		}
	}
	return firstErr
}

// compensate undoes decrements after a failed or conflicted reserve.
// Errors here shrink to log lines: the next verification pass over the
// same sessions will surface any row left inconsistent.
func (s *CapacityService) compensate(ctx context.Context, sessionIDs []string, count int) {
	for _, id := range sessionIDs {
		if err := s.sessions.AdjustSpots(ctx, id, count); err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Printf("capacity: rollback of session %s failed: %v", id, err)
		}
	}
}
