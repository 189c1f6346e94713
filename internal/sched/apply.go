package sched

import (
	"fmt"

	"schedsync/internal/model"
)

// ApplyResult is the structured outcome of a sync apply. Guard
// rejections (finalized event without the escape hatch) are expected
// user-facing outcomes and come back as Success=false with a message,
// not as errors.
type ApplyResult struct {
	Success bool
	Message string
	Applied int // Rows whose written value differs from the prior one
}

// Apply replaces one event's participant availability with the set
// re-derived from the owner's current preferences, narrowed by the
// caller's approved selections.
//
// Fails fast with no write when the event is finalized and
// allowFinalized is unset, or when the owner is missing or has no
// participant for the event. Protected cells keep their derived value
// unless overwriteProtected forces the caller's explicit selection.
// The write is one atomic full replacement of the participant's rows
// for the event, so dates removed between preview and apply leave no
// stale rows behind.
func (s *Service) Apply(ownerID, eventID string, selections map[string]bool, overwriteProtected, allowFinalized bool) (*ApplyResult, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}

	event, err := s.events.GetEvent(eventID)
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if event.Finalized && !allowFinalized {
		return &ApplyResult{Success: false, Message: "event is finalized"}, nil
	}

	link, err := s.database.FindLink(ownerID, eventID)
	if err != nil {
		return nil, fmt.Errorf("finding link: %w", err)
	}
	if link == nil || !link.Linked() {
		return nil, ErrNotLinked
	}

	preview, err := s.previewEvent(ownerID, link, "")
	if err != nil {
		return nil, fmt.Errorf("recomputing desired availability: %w", err)
	}

	entries := make([]*model.AvailabilityEntry, 0, len(preview.Rows))
	applied := 0
	for _, row := range preview.Rows {
		value := appliedValue(row, selections, overwriteProtected)
		if value != row.Current {
			applied++
		}
		entries = append(entries, &model.AvailabilityEntry{DateID: row.DateID, Available: value})
	}

	if err := s.participants.ReplaceAvailability(link.ParticipantID, eventID, entries); err != nil {
		s.logger.Error("availability replace failed", "owner", ownerID, "event", eventID, "operation", "apply", "error", err)
		return nil, fmt.Errorf("replacing availability: %w", err)
	}

	s.logger.Info("availability synced", "owner", ownerID, "event", eventID, "applied", applied)
	return &ApplyResult{Success: true, Applied: applied}, nil
}

// appliedValue decides what gets written for one row. Protected cells
// keep their derived value unless overwriteProtected is set; explicit
// selections win over everything else; rows the caller did not select
// keep their current value, so denied changes are never applied.
func appliedValue(row *PreviewRow, selections map[string]bool, overwriteProtected bool) bool {
	if row.Protected && !overwriteProtected {
		return row.Desired
	}
	if value, ok := selections[row.DateID]; ok {
		return value
	}
	return row.Current
}

// SyncFailure records one event's failure during a batch sync.
type SyncFailure struct {
	EventID   string
	EventName string
	Message   string
}

// SyncReport aggregates the outcome of a batch sync across events.
type SyncReport struct {
	Synced   int // Events whose availability was replaced
	Applied  int // Total rows changed across events
	Skipped  int // Events with nothing to change or finalized
	Failures []SyncFailure
}

// SyncOptions controls a batch sync run.
type SyncOptions struct {
	// AllowFinalized lets the batch write to finalized events.
	AllowFinalized bool
	// AutoOnly restricts the batch to links that opted in to
	// background sync. Set by the daemon, never by the CLI.
	AutoOnly bool
}

// SyncAll previews and applies every pending change across the owner's
// linked events. Each event is its own unit of failure: one event's
// error is logged and recorded, and never blocks or rolls back its
// siblings. Finalized events are skipped unless AllowFinalized is set.
func (s *Service) SyncAll(ownerID string, opts SyncOptions) (*SyncReport, error) {
	previews, err := s.Preview(ownerID, PreviewOptions{Scope: ScopeAll})
	if err != nil {
		return nil, fmt.Errorf("building previews: %w", err)
	}

	report := &SyncReport{}
	for _, p := range previews {
		if opts.AutoOnly && !p.AutoSync {
			continue
		}
		if p.Changes.Total == 0 {
			report.Skipped++
			continue
		}
		if p.Finalized && !opts.AllowFinalized {
			s.logger.Debug("skipping finalized event", "owner", ownerID, "event", p.EventID)
			report.Skipped++
			continue
		}

		selections := make(map[string]bool)
		for _, row := range p.Rows {
			if row.WillChange {
				selections[row.DateID] = row.Desired
			}
		}

		result, err := s.Apply(ownerID, p.EventID, selections, false, opts.AllowFinalized)
		if err != nil {
			s.logger.Error("sync failed for event", "owner", ownerID, "event", p.EventID, "operation", "syncAll", "error", err)
			report.Failures = append(report.Failures, SyncFailure{EventID: p.EventID, EventName: p.EventName, Message: err.Error()})
			continue
		}
		if !result.Success {
			report.Failures = append(report.Failures, SyncFailure{EventID: p.EventID, EventName: p.EventName, Message: result.Message})
			continue
		}
		report.Synced++
		report.Applied += result.Applied
	}

	return report, nil
}
