package sched

import (
	"testing"

	"schedsync/internal/testutil"
)

func TestLockedDates(t *testing.T) {
	svc, db := newTestService(t)

	// Event A finalized on Feb 5, 18:00-20:00.
	eventA, datesA := testutil.SeedEvent(t, db, "board games", testutil.Day(2024, 2, 5, 18, 20))
	testutil.SeedLink(t, db, "alice", eventA.ID, false)
	testutil.Finalize(t, db, eventA.ID, datesA[0].ID)

	// Event B proposes an overlapping, a touching, and a disjoint slot.
	eventB, datesB := testutil.SeedEvent(t, db, "dinner",
		testutil.Day(2024, 2, 5, 19, 21), // overlaps the finalized slot
		testutil.Day(2024, 2, 5, 20, 22), // touches it end-to-start
		testutil.Day(2024, 2, 6, 19, 21), // different day
	)
	testutil.SeedLink(t, db, "alice", eventB.ID, false)

	locked, err := svc.LockedDates("alice", eventB.ID, datesB)
	if err != nil {
		t.Fatalf("LockedDates() error = %v", err)
	}

	if !locked[datesB[0].ID] {
		t.Error("overlapping slot should be locked")
	}
	if locked[datesB[1].ID] {
		t.Error("slot touching the finalized end should not be locked")
	}
	if locked[datesB[2].ID] {
		t.Error("disjoint slot should not be locked")
	}
}

func TestLockedDatesIgnoresOwnEvent(t *testing.T) {
	svc, db := newTestService(t)

	event, dates := testutil.SeedEvent(t, db, "board games",
		testutil.Day(2024, 2, 5, 18, 20),
		testutil.Day(2024, 2, 5, 19, 21),
	)
	testutil.SeedLink(t, db, "alice", event.ID, false)
	testutil.Finalize(t, db, event.ID, dates[0].ID)

	locked, err := svc.LockedDates("alice", event.ID, dates)
	if err != nil {
		t.Fatalf("LockedDates() error = %v", err)
	}
	if len(locked) != 0 {
		t.Errorf("an event's own finalized dates locked %d of its slots, want 0", len(locked))
	}
}

func TestLockedDatesIgnoresUnlinkedEvents(t *testing.T) {
	svc, db := newTestService(t)

	// Bob's finalized event; alice is not linked to it.
	eventA, datesA := testutil.SeedEvent(t, db, "bob's party", testutil.Day(2024, 2, 5, 18, 20))
	testutil.SeedLink(t, db, "bob", eventA.ID, false)
	testutil.Finalize(t, db, eventA.ID, datesA[0].ID)

	eventB, datesB := testutil.SeedEvent(t, db, "dinner", testutil.Day(2024, 2, 5, 19, 21))
	testutil.SeedLink(t, db, "alice", eventB.ID, false)

	locked, err := svc.LockedDates("alice", eventB.ID, datesB)
	if err != nil {
		t.Fatalf("LockedDates() error = %v", err)
	}
	if len(locked) != 0 {
		t.Errorf("another owner's event locked %d slots, want 0", len(locked))
	}
}
