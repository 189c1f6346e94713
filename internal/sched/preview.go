package sched

import (
	"fmt"
	"time"

	"schedsync/internal/model"
)

// Scope selects which linked events a preview covers.
type Scope string

const (
	// ScopeCurrent previews the single event named in PreviewOptions.
	ScopeCurrent Scope = "current"
	// ScopeAll previews every linked event with a participant identity,
	// except the one named by ExcludeEventID.
	ScopeAll Scope = "all"
)

// PreviewOptions controls which events a preview covers.
type PreviewOptions struct {
	Scope          Scope
	EventID        string // Required for ScopeCurrent
	ExcludeEventID string // ScopeAll: skip this event and ignore its finalized dates
}

// PreviewRow is one per-date line of a sync preview: the persisted
// value, the value re-derived from current preferences, and whether
// the cell needs explicit confirmation to overwrite.
type PreviewRow struct {
	DateID      string
	Start       time.Time
	End         time.Time
	Current     bool // Persisted availability; false when no row exists
	Desired     bool // Re-derived from overrides, conflicts, resolver
	Locked      bool // Conflicts with another event's finalized date
	HasOverride bool // An explicit per-date override exists
	Protected   bool // Locked or overridden
	WillChange  bool // Desired != Current
}

// ChangeCounts aggregates the pending changes of one preview.
type ChangeCounts struct {
	Total         int
	ToAvailable   int
	ToUnavailable int
}

// SyncPreviewEvent is the full diff between desired and current
// availability for one linked event. It is derived on every preview
// request and never persisted.
type SyncPreviewEvent struct {
	EventID       string
	EventName     string
	ParticipantID string
	Finalized     bool // Applying requires the allow-finalized flag
	AutoSync      bool // Link opted in to background sync
	Rows          []*PreviewRow
	Changes       ChangeCounts
}

// Preview computes sync previews for the owner's linked events.
//
// Desired value per date, in precedence order: a saved override for
// the exact event-date; false when the date conflicts with another
// event's finalized date; otherwise the resolver's tri-state, coerced
// to the current value when Unknown; no opinion means don't touch.
func (s *Service) Preview(ownerID string, opts PreviewOptions) ([]*SyncPreviewEvent, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}

	switch opts.Scope {
	case ScopeCurrent:
		if opts.EventID == "" {
			return nil, &ValidationError{Field: "event", Reason: "required for current scope"}
		}
		link, err := s.database.FindLink(ownerID, opts.EventID)
		if err != nil {
			return nil, fmt.Errorf("finding link: %w", err)
		}
		if link == nil || !link.Linked() {
			return nil, ErrNotLinked
		}
		ev, err := s.previewEvent(ownerID, link, opts.ExcludeEventID)
		if err != nil {
			return nil, err
		}
		return []*SyncPreviewEvent{ev}, nil

	case ScopeAll:
		links, err := s.database.ListLinks(ownerID)
		if err != nil {
			return nil, fmt.Errorf("listing links: %w", err)
		}
		previews := make([]*SyncPreviewEvent, 0, len(links))
		for _, link := range links {
			if !link.Linked() || link.EventID == opts.ExcludeEventID {
				continue
			}
			ev, err := s.previewEvent(ownerID, link, opts.ExcludeEventID)
			if err != nil {
				return nil, fmt.Errorf("previewing event %s: %w", link.EventID, err)
			}
			previews = append(previews, ev)
		}
		return previews, nil

	default:
		return nil, &ValidationError{Field: "scope", Reason: fmt.Sprintf("unknown scope %q", opts.Scope)}
	}
}

// previewEvent builds the diff for one linked event.
func (s *Service) previewEvent(ownerID string, link *model.UserEventLink, excludeEventID string) (*SyncPreviewEvent, error) {
	event, err := s.events.GetEvent(link.EventID)
	if err != nil {
		return nil, fmt.Errorf("loading event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	dates, err := s.events.ListCandidateDates(link.EventID)
	if err != nil {
		return nil, fmt.Errorf("listing candidate dates: %w", err)
	}

	preview := &SyncPreviewEvent{
		EventID:       event.ID,
		EventName:     event.Name,
		ParticipantID: link.ParticipantID,
		Finalized:     event.Finalized,
		AutoSync:      link.AutoSync,
		Rows:          []*PreviewRow{},
	}
	if len(dates) == 0 {
		return preview, nil
	}

	current := make(map[string]bool)
	entries, err := s.participants.GetAvailability(link.ParticipantID)
	if err != nil {
		return nil, fmt.Errorf("loading availability: %w", err)
	}
	for _, e := range entries {
		current[e.DateID] = e.Available
	}

	overrides := make(map[string]*model.AvailabilityOverride)
	saved, err := s.database.FindOverridesByEvent(ownerID, link.EventID)
	if err != nil {
		return nil, fmt.Errorf("loading overrides: %w", err)
	}
	for _, o := range saved {
		overrides[o.DateID] = o
	}

	exclude := map[string]bool{link.EventID: true}
	if excludeEventID != "" {
		exclude[excludeEventID] = true
	}
	locked, err := s.lockedDates(ownerID, exclude, dates)
	if err != nil {
		return nil, fmt.Errorf("detecting conflicts: %w", err)
	}

	blocks, templates, err := s.loadPreferences(ownerID, dates)
	if err != nil {
		return nil, err
	}

	for _, d := range dates {
		row := &PreviewRow{
			DateID:  d.ID,
			Start:   d.Start,
			End:     d.End,
			Current: current[d.ID],
			Locked:  locked[d.ID],
		}

		if o, ok := overrides[d.ID]; ok {
			row.HasOverride = true
			row.Desired = o.Available
		} else if row.Locked {
			row.Desired = false
		} else {
			switch Resolve(NewInterval(d.Start, d.End), blocks, templates) {
			case model.Available:
				row.Desired = true
			case model.Unavailable:
				row.Desired = false
			default:
				row.Desired = row.Current
			}
		}

		row.Protected = row.Locked || row.HasOverride
		row.WillChange = row.Desired != row.Current
		preview.Rows = append(preview.Rows, row)
	}

	preview.Changes = countChanges(preview.Rows)
	return preview, nil
}

func countChanges(rows []*PreviewRow) ChangeCounts {
	var c ChangeCounts
	for _, row := range rows {
		if !row.WillChange {
			continue
		}
		c.Total++
		if row.Desired {
			c.ToAvailable++
		} else {
			c.ToUnavailable++
		}
	}
	return c
}
