package sched

import (
	"testing"

	"schedsync/internal/testutil"
)

func TestBuildContextUnauthenticated(t *testing.T) {
	svc, db := newTestService(t)

	_, dates := testutil.SeedEvent(t, db, "dinner", testutil.Day(2024, 2, 5, 18, 20))

	ctx, err := svc.BuildContext("", "whatever", dates)
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}
	if ctx.IsAuthenticated {
		t.Error("context should not be authenticated")
	}
	if len(ctx.AutoFill) != 0 || len(ctx.LockedDateIDs) != 0 || len(ctx.OverrideDateIDs) != 0 {
		t.Errorf("expected a blank context, got %+v", ctx)
	}
}

func TestBuildContextAutoFill(t *testing.T) {
	svc, db := newTestService(t)

	// Monday 18:00-20:00 available (learned), Tuesday unknown.
	event, dates := testutil.SeedEvent(t, db, "club",
		testutil.Day(2024, 2, 5, 18, 20), // Monday, covered by template
		testutil.Day(2024, 2, 6, 18, 20), // Tuesday, no evidence
		testutil.Day(2024, 2, 12, 9, 17), // Monday, different window
	)

	if _, err := svc.CreateManualTemplate("alice", 1, 18*60, 20*60, true); err != nil {
		t.Fatalf("CreateManualTemplate() error = %v", err)
	}
	if err := svc.UpsertBlocks("alice", "other-event", dates[2:], nil); err != nil {
		t.Fatalf("UpsertBlocks() error = %v", err)
	}

	ctx, err := svc.BuildContext("alice", event.ID, dates)
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}
	if !ctx.IsAuthenticated {
		t.Fatal("context should be authenticated")
	}

	if got, ok := ctx.AutoFill[dates[0].ID]; !ok || !got {
		t.Errorf("template-covered date: AutoFill = %v/%v, want true", got, ok)
	}
	if _, ok := ctx.AutoFill[dates[1].ID]; ok {
		t.Error("unknown date should be omitted from AutoFill, not stored as false")
	}
	if got, ok := ctx.AutoFill[dates[2].ID]; !ok || got {
		t.Errorf("block-covered date: AutoFill = %v/%v, want false", got, ok)
	}
}

func TestBuildContextLockedDatesSkipAutoFill(t *testing.T) {
	svc, db := newTestService(t)

	eventA, datesA := testutil.SeedEvent(t, db, "board games", testutil.Day(2024, 2, 5, 18, 20))
	testutil.SeedLink(t, db, "alice", eventA.ID, false)
	testutil.Finalize(t, db, eventA.ID, datesA[0].ID)

	eventB, datesB := testutil.SeedEvent(t, db, "dinner", testutil.Day(2024, 2, 5, 19, 21))

	// Even with a matching template, locked slots get no suggestion.
	if _, err := svc.CreateManualTemplate("alice", 1, 19*60, 21*60, true); err != nil {
		t.Fatalf("CreateManualTemplate() error = %v", err)
	}

	ctx, err := svc.BuildContext("alice", eventB.ID, datesB)
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}

	if len(ctx.LockedDateIDs) != 1 || ctx.LockedDateIDs[0] != datesB[0].ID {
		t.Errorf("LockedDateIDs = %v, want [%s]", ctx.LockedDateIDs, datesB[0].ID)
	}
	if _, ok := ctx.AutoFill[datesB[0].ID]; ok {
		t.Error("locked date should have no auto-fill suggestion")
	}
}

func TestBuildContextReportsOverrides(t *testing.T) {
	svc, db := newTestService(t)

	event, dates := testutil.SeedEvent(t, db, "dinner", testutil.Day(2024, 2, 5, 18, 20))

	if err := svc.SaveOverrides("alice", event.ID, []string{dates[0].ID}, []string{dates[0].ID}); err != nil {
		t.Fatalf("SaveOverrides() error = %v", err)
	}

	ctx, err := svc.BuildContext("alice", event.ID, dates)
	if err != nil {
		t.Fatalf("BuildContext() error = %v", err)
	}
	if len(ctx.OverrideDateIDs) != 1 || ctx.OverrideDateIDs[0] != dates[0].ID {
		t.Errorf("OverrideDateIDs = %v, want [%s]", ctx.OverrideDateIDs, dates[0].ID)
	}
}
