package sched

// Reconcile produces the preview state that holds after a successful
// apply, without re-fetching anything: each row's current value becomes
// the value the apply wrote, and WillChange is recomputed against the
// unchanged desired value. Callers drop events whose resulting
// Changes.Total is zero from the visible list.
//
// Pure function of its arguments; prev is not mutated.
func Reconcile(prev *SyncPreviewEvent, selections map[string]bool, overwriteProtected bool) *SyncPreviewEvent {
	next := &SyncPreviewEvent{
		EventID:       prev.EventID,
		EventName:     prev.EventName,
		ParticipantID: prev.ParticipantID,
		Finalized:     prev.Finalized,
		Rows:          make([]*PreviewRow, len(prev.Rows)),
	}

	for i, row := range prev.Rows {
		updated := *row
		updated.Current = appliedValue(row, selections, overwriteProtected)
		updated.WillChange = updated.Desired != updated.Current
		next.Rows[i] = &updated
	}

	next.Changes = countChanges(next.Rows)
	return next
}
