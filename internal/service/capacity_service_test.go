package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ferhatka/studio-booking/internal/model"
)

func scheduledSession(id string, spots int) *model.Session {
	return &model.Session{ID: id, OfferingID: "off-1", AvailableSpots: spots, Status: model.SessionScheduled}
}

func TestReserveSingleSession(t *testing.T) {
	store := newFakeSessionStore(scheduledSession("s1", 5))
	svc := NewCapacityService(store)

	if err := svc.Reserve(context.Background(), []string{"s1"}, 2); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if got := store.spots("s1"); got != 3 {
		t.Fatalf("spots after reserve = %d, want 3", got)
	}
}

func TestReserveConflictRollsBackWholeSet(t *testing.T) {
	// s2 cannot fit the party; both decrements must be undone.
	store := newFakeSessionStore(scheduledSession("s1", 10), scheduledSession("s2", 1))
	svc := NewCapacityService(store)

	err := svc.Reserve(context.Background(), []string{"s1", "s2"}, 2)
	if !errors.Is(err, ErrCapacityConflict) {
		t.Fatalf("Reserve error = %v, want ErrCapacityConflict", err)
	}
	if got := store.spots("s1"); got != 10 {
		t.Errorf("s1 spots = %d, want 10 after rollback", got)
	}
	if got := store.spots("s2"); got != 1 {
		t.Errorf("s2 spots = %d, want 1 after rollback", got)
	}
}

func TestReserveLastSpotRace(t *testing.T) {
	// Two parties contend for the last spot.  The second decrement lands
	// between the first party's write and its verification read; exactly
	// one reservation must survive and the counter must not rest negative.
	store := newFakeSessionStore(scheduledSession("s1", 1))
	svc := NewCapacityService(store)

	raced := false
	store.onAdjust = func(id string, delta int) error {
		if delta < 0 && !raced {
			raced = true
			// Competing party sneaks its decrement in first.
			store.sessions[id].AvailableSpots--
		}
		return nil
	}

	err := svc.Reserve(context.Background(), []string{"s1"}, 1)
	if !errors.Is(err, ErrCapacityConflict) {
		t.Fatalf("Reserve error = %v, want ErrCapacityConflict", err)
	}
	// Our decrement was rolled back; the competitor's single spot stays
	// taken.
	if got := store.spots("s1"); got != 0 {
		t.Fatalf("spots = %d, want 0 (winner keeps the spot)", got)
	}
}

func TestReserveFalseRollbackLeavesSetConsistent(t *testing.T) {
	// A conflict on one session of a course rolls back sessions that had
	// room.  The request fails as a unit and every counter is restored;
	// partial courses are never held.
	store := newFakeSessionStore(
		scheduledSession("a", 4),
		scheduledSession("b", 4),
		scheduledSession("c", 0),
	)
	svc := NewCapacityService(store)

	err := svc.Reserve(context.Background(), []string{"a", "b", "c"}, 1)
	if !errors.Is(err, ErrCapacityConflict) {
		t.Fatalf("Reserve error = %v, want ErrCapacityConflict", err)
	}
	for id, want := range map[string]int{"a": 4, "b": 4, "c": 0} {
		if got := store.spots(id); got != want {
			t.Errorf("%s spots = %d, want %d", id, got, want)
		}
	}
}

func TestReserveUnknownSessionCompensatesPriorDecrements(t *testing.T) {
	store := newFakeSessionStore(scheduledSession("s1", 3))
	svc := NewCapacityService(store)

	err := svc.Reserve(context.Background(), []string{"s1", "ghost"}, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Reserve error = %v, want ErrNotFound", err)
	}
	if got := store.spots("s1"); got != 3 {
		t.Fatalf("s1 spots = %d, want 3 after compensation", got)
	}
}

func TestReserveValidation(t *testing.T) {
	svc := NewCapacityService(newFakeSessionStore())
	tests := []struct {
		name  string
		ids   []string
		count int
	}{
		{"empty set", nil, 1},
		{"zero count", []string{"s1"}, 0},
		{"negative count", []string{"s1"}, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.Reserve(context.Background(), tt.ids, tt.count); !errors.Is(err, ErrValidation) {
				t.Fatalf("Reserve error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestReleaseSkipsMissingSessions(t *testing.T) {
	store := newFakeSessionStore(scheduledSession("s1", 2))
	svc := NewCapacityService(store)

	if err := svc.Release(context.Background(), []string{"gone", "s1"}, 2); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := store.spots("s1"); got != 4 {
		t.Fatalf("s1 spots = %d, want 4", got)
	}
}

func TestReleaseReportsFirstErrorAfterFullPass(t *testing.T) {
	store := newFakeSessionStore(scheduledSession("s1", 0), scheduledSession("s2", 0))
	svc := NewCapacityService(store)

	boom := errors.New("disk on fire")
	store.onAdjust = func(id string, delta int) error {
		if id == "s1" {
			return boom
		}
		return nil
	}

	err := svc.Release(context.Background(), []string{"s1", "s2"}, 1)
	if !errors.Is(err, boom) {
		t.Fatalf("Release error = %v, want wrapped %v", err, boom)
	}
	// s2 was still attempted despite the earlier failure.
	if got := store.spots("s2"); got != 1 {
		t.Fatalf("s2 spots = %d, want 1", got)
	}
}
