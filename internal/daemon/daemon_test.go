package daemon

import (
	"context"
	"testing"

	"schedsync/internal/sched"
	"schedsync/internal/testutil"
)

func TestRunRejectsInvalidSchedule(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	svc := sched.NewService(db, db, db, sched.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())

	r := New(svc, db, sched.NewNopLogger(), "not a cron expression", false)
	if err := r.Run(context.Background()); err == nil {
		t.Error("expected an error for an invalid schedule")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	svc := sched.NewService(db, db, db, sched.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(svc, db, sched.NewNopLogger(), "@hourly", false)
	if err := r.Run(ctx); err != nil {
		t.Errorf("Run() error = %v, want a clean shutdown", err)
	}
}

func TestTickSyncsAutoOptedOwners(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	svc := sched.NewService(db, db, db, sched.NewNopLogger(), testutil.FixedClock(), testutil.NewStubIDGenerator())

	// alice opted in with a pending change; bob opted out.
	event, dates := testutil.SeedEvent(t, db, "dinner", testutil.Day(2024, 2, 5, 18, 20))
	link := testutil.SeedLink(t, db, "alice", event.ID, true)
	testutil.SeedLink(t, db, "bob", event.ID, false)

	if err := svc.UpsertBlocks("alice", "other-event", dates, []string{dates[0].ID}); err != nil {
		t.Fatalf("UpsertBlocks() error = %v", err)
	}

	r := New(svc, db, sched.NewNopLogger(), "@hourly", false)
	r.tick()

	entries, err := db.GetAvailability(link.ParticipantID)
	if err != nil {
		t.Fatalf("GetAvailability() error = %v", err)
	}
	if len(entries) != 1 || !entries[0].Available {
		t.Errorf("availability after tick = %+v, want the pending change applied", entries)
	}
}
