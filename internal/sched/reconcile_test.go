package sched

import (
	"testing"
)

func previewFixture() *SyncPreviewEvent {
	rows := []*PreviewRow{
		{DateID: "d1", Current: false, Desired: true, WillChange: true},
		{DateID: "d2", Current: true, Desired: true},
		{DateID: "d3", Current: true, Desired: false, Locked: true, Protected: true, WillChange: true},
	}
	return &SyncPreviewEvent{
		EventID:   "e1",
		EventName: "dinner",
		Rows:      rows,
		Changes:   countChanges(rows),
	}
}

func TestReconcileAppliesSelections(t *testing.T) {
	prev := previewFixture()

	next := Reconcile(prev, map[string]bool{"d1": true, "d3": false}, false)

	if next.Changes.Total != 0 {
		t.Errorf("Changes.Total = %d, want 0 after applying every pending change", next.Changes.Total)
	}
	if !next.Rows[0].Current {
		t.Error("d1 should now be available")
	}
	if next.Rows[2].Current {
		t.Error("d3 should now carry its derived value")
	}
}

func TestReconcilePartialSelection(t *testing.T) {
	prev := previewFixture()

	// Only d3 approved; d1 stays pending.
	next := Reconcile(prev, map[string]bool{"d3": false}, false)

	if next.Changes.Total != 1 {
		t.Errorf("Changes.Total = %d, want 1", next.Changes.Total)
	}
	if !next.Rows[0].WillChange {
		t.Error("d1 should still be pending")
	}
	if next.Rows[2].WillChange {
		t.Error("d3 should be settled")
	}
}

func TestReconcileProtectedRows(t *testing.T) {
	prev := previewFixture()

	// A selection against a protected row is ignored without the
	// overwrite flag; the derived value wins.
	next := Reconcile(prev, map[string]bool{"d3": true}, false)
	if next.Rows[2].Current {
		t.Error("protected row should take its derived value, not the selection")
	}

	next = Reconcile(prev, map[string]bool{"d3": true}, true)
	if !next.Rows[2].Current {
		t.Error("overwrite flag should force the selection through")
	}
	if !next.Rows[2].WillChange {
		t.Error("forced value diverges from desired and should read as pending")
	}
}

func TestReconcileDoesNotMutateInput(t *testing.T) {
	prev := previewFixture()

	Reconcile(prev, map[string]bool{"d1": true, "d3": false}, false)

	if prev.Rows[0].Current || prev.Changes.Total != 2 {
		t.Error("input preview was mutated")
	}
}
