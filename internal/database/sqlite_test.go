package database_test

import (
	"testing"
	"time"

	"schedsync/internal/model"
	"schedsync/internal/testutil"
)

func TestUpsertBlockKeyedByInterval(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	start := time.Date(2024, 2, 5, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	first := &model.ScheduleBlock{
		ID: "b-1", OwnerID: "alice", Start: start, End: end,
		Available: true, Source: model.SourceEvent, OriginEventID: "e-1",
		UpdatedAt: start,
	}
	if err := db.UpsertBlock(first); err != nil {
		t.Fatalf("UpsertBlock() error = %v", err)
	}

	// Same owner and interval, new id: the row is updated, not doubled.
	second := &model.ScheduleBlock{
		ID: "b-2", OwnerID: "alice", Start: start, End: end,
		Available: false, Source: model.SourceEvent, OriginEventID: "e-2",
		UpdatedAt: start.Add(time.Hour),
	}
	if err := db.UpsertBlock(second); err != nil {
		t.Fatalf("second UpsertBlock() error = %v", err)
	}

	blocks, err := db.FindBlocksInRange("alice", start, end)
	if err != nil {
		t.Fatalf("FindBlocksInRange() error = %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	b := blocks[0]
	if b.ID != "b-1" {
		t.Errorf("id = %q, want the original %q", b.ID, "b-1")
	}
	if b.Available || b.OriginEventID != "e-2" {
		t.Errorf("block = %+v, want the updated values", b)
	}
}

func TestFindBlocksInRange(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	day := func(d int) time.Time { return time.Date(2024, 2, d, 18, 0, 0, 0, time.UTC) }
	for i, d := range []int{5, 6, 7} {
		b := &model.ScheduleBlock{
			ID: string(rune('a' + i)), OwnerID: "alice",
			Start: day(d), End: day(d).Add(2 * time.Hour),
			Available: true, Source: model.SourceEvent, UpdatedAt: day(d),
		}
		if err := db.UpsertBlock(b); err != nil {
			t.Fatalf("UpsertBlock() error = %v", err)
		}
	}

	blocks, err := db.FindBlocksInRange("alice", day(6), day(6).Add(2*time.Hour))
	if err != nil {
		t.Fatalf("FindBlocksInRange() error = %v", err)
	}
	if len(blocks) != 1 || !blocks[0].Start.Equal(day(6)) {
		t.Errorf("got %d blocks, want only the Feb 6 block", len(blocks))
	}

	blocks, err = db.FindBlocksInRange("bob", day(5), day(8))
	if err != nil {
		t.Fatalf("FindBlocksInRange() error = %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("got %d blocks for another owner, want 0", len(blocks))
	}
}

func TestSaveTemplateKeyedBySource(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	now := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	manual := &model.ScheduleTemplate{
		ID: "t-1", OwnerID: "alice", Weekday: time.Monday,
		StartMinute: 18 * 60, EndMinute: 20 * 60,
		Available: true, Source: model.SourceManual, UpdatedAt: now,
	}
	learned := &model.ScheduleTemplate{
		ID: "t-2", OwnerID: "alice", Weekday: time.Monday,
		StartMinute: 18 * 60, EndMinute: 20 * 60,
		Available: false, Source: model.SourceLearned, SampleCount: 1, UpdatedAt: now,
	}

	// Manual and learned coexist on the same window.
	if err := db.SaveTemplate(manual); err != nil {
		t.Fatalf("SaveTemplate(manual) error = %v", err)
	}
	if err := db.SaveTemplate(learned); err != nil {
		t.Fatalf("SaveTemplate(learned) error = %v", err)
	}

	// Re-saving the learned template updates in place.
	learned.SampleCount = 2
	if err := db.SaveTemplate(learned); err != nil {
		t.Fatalf("re-SaveTemplate(learned) error = %v", err)
	}

	tmpls, err := db.FindTemplatesByKey("alice", time.Monday, 18*60, 20*60)
	if err != nil {
		t.Fatalf("FindTemplatesByKey() error = %v", err)
	}
	if len(tmpls) != 2 {
		t.Fatalf("got %d templates, want 2", len(tmpls))
	}
	for _, tmpl := range tmpls {
		if tmpl.Source == model.SourceLearned && tmpl.SampleCount != 2 {
			t.Errorf("learned sample count = %d, want 2", tmpl.SampleCount)
		}
	}
}

func TestFindMissingRecordsReturnNil(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	link, err := db.FindLink("alice", "missing")
	if err != nil || link != nil {
		t.Errorf("FindLink() = (%v, %v), want (nil, nil)", link, err)
	}
	tmpl, err := db.FindTemplate("alice", "missing")
	if err != nil || tmpl != nil {
		t.Errorf("FindTemplate() = (%v, %v), want (nil, nil)", tmpl, err)
	}
	event, err := db.GetEvent("missing")
	if err != nil || event != nil {
		t.Errorf("GetEvent() = (%v, %v), want (nil, nil)", event, err)
	}
}

func TestReplaceAvailabilitySwapsFullSet(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	event, dates := testutil.SeedEvent(t, db, "dinner",
		testutil.Day(2024, 2, 5, 18, 20),
		testutil.Day(2024, 2, 6, 18, 20),
	)
	participantID := testutil.SeedParticipant(t, db, event.ID, "alice")

	first := []*model.AvailabilityEntry{
		{DateID: dates[0].ID, Available: true},
		{DateID: dates[1].ID, Available: true},
	}
	if err := db.ReplaceAvailability(participantID, event.ID, first); err != nil {
		t.Fatalf("ReplaceAvailability() error = %v", err)
	}

	// The second write carries fewer rows; the old extras must go.
	second := []*model.AvailabilityEntry{{DateID: dates[0].ID, Available: false}}
	if err := db.ReplaceAvailability(participantID, event.ID, second); err != nil {
		t.Fatalf("second ReplaceAvailability() error = %v", err)
	}

	entries, err := db.GetAvailability(participantID)
	if err != nil {
		t.Fatalf("GetAvailability() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1 (stale rows removed)", len(entries))
	}
	if entries[0].DateID != dates[0].ID || entries[0].Available {
		t.Errorf("entry = %+v, want %s unavailable", entries[0], dates[0].ID)
	}
}

func TestSyncOperations(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	first, err := db.CreateSyncOperation("Answer", "event=e-1")
	if err != nil {
		t.Fatalf("CreateSyncOperation() error = %v", err)
	}
	second, err := db.CreateSyncOperation("SyncApply", "event=e-1")
	if err != nil {
		t.Fatalf("second CreateSyncOperation() error = %v", err)
	}
	if second.ID <= first.ID {
		t.Errorf("ids not increasing: %d then %d", first.ID, second.ID)
	}

	if err := db.FinishSyncOperation(first.ID, "success"); err != nil {
		t.Fatalf("FinishSyncOperation() error = %v", err)
	}

	ops, err := db.ListSyncOperations(10)
	if err != nil {
		t.Fatalf("ListSyncOperations() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2", len(ops))
	}
	if ops[0].ID != second.ID {
		t.Error("operations should list newest first")
	}
	if ops[1].Status != "success" || ops[1].FinishedAt == nil {
		t.Errorf("finished operation = %+v, want success with a finish time", ops[1])
	}
	if ops[0].FinishedAt != nil {
		t.Error("unfinished operation should have no finish time")
	}

	ops, err = db.ListSyncOperations(1)
	if err != nil {
		t.Fatalf("ListSyncOperations(1) error = %v", err)
	}
	if len(ops) != 1 {
		t.Errorf("got %d operations, want the limit of 1", len(ops))
	}
}

func TestListAutoSyncOwners(t *testing.T) {
	db := testutil.NewTestDatabase(t)

	eventA, _ := testutil.SeedEvent(t, db, "dinner", testutil.Day(2024, 2, 5, 18, 20))
	eventB, _ := testutil.SeedEvent(t, db, "club", testutil.Day(2024, 2, 6, 18, 20))

	// alice: two auto-sync links, listed once.
	testutil.SeedLink(t, db, "alice", eventA.ID, true)
	testutil.SeedLink(t, db, "alice", eventB.ID, true)
	// bob: opted out.
	testutil.SeedLink(t, db, "bob", eventA.ID, false)
	// carol: auto-sync on, but never answered.
	if err := db.SaveLink(&model.UserEventLink{
		ID: "l-carol", OwnerID: "carol", EventID: eventB.ID,
		AutoSync: true, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("SaveLink() error = %v", err)
	}

	owners, err := db.ListAutoSyncOwners()
	if err != nil {
		t.Fatalf("ListAutoSyncOwners() error = %v", err)
	}
	if len(owners) != 1 || owners[0] != "alice" {
		t.Errorf("owners = %v, want [alice]", owners)
	}
}
