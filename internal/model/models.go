package model

import "time"

// Source identifies where an availability statement came from.
// It is a closed set; read sites switch over all three values.
type Source string

const (
	// SourceManual marks records the user entered directly. Manual
	// records are ground truth and are never mutated by learning.
	SourceManual Source = "manual"
	// SourceEvent marks blocks written as a side effect of answering
	// an event's candidate dates.
	SourceEvent Source = "event"
	// SourceLearned marks templates maintained by the template learner.
	SourceLearned Source = "learned"
)

// Availability is the tri-state result of availability inference.
type Availability int

const (
	Unknown Availability = iota
	Available
	Unavailable
)

// FromBool converts a stored boolean availability into the tri-state.
func FromBool(available bool) Availability {
	if available {
		return Available
	}
	return Unavailable
}

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ScheduleBlock is a one-off availability statement: on [Start, End)
// the owner is available or not. Keyed uniquely by (owner, start, end);
// re-saving the same interval overwrites.
type ScheduleBlock struct {
	ID            string    // UUID
	OwnerID       string    // User who owns this block
	Start         time.Time // Inclusive
	End           time.Time // Exclusive
	Available     bool
	Source        Source    // manual or event
	OriginEventID string    // Event that produced this block; empty for manual
	UpdatedAt     time.Time // Last upsert time
}

// Interval returns the block's half-open time range.
func (b *ScheduleBlock) Interval() (start, end time.Time) {
	return b.Start, b.End
}

// ScheduleTemplate is a weekly-recurring availability statement: every
// Weekday, the clock window [StartMinute, EndMinute) is available or
// not. Keyed uniquely by (owner, weekday, start, end, source).
type ScheduleTemplate struct {
	ID          string       // UUID
	OwnerID     string       // User who owns this template
	Weekday     time.Weekday // 0 (Sunday) through 6 (Saturday)
	StartMinute int          // Minutes since midnight, inclusive
	EndMinute   int          // Minutes since midnight, exclusive
	Available   bool
	Source      Source // manual or learned
	SampleCount int    // Confidence counter; learned templates only
	UpdatedAt   time.Time
}

// AvailabilityOverride is an explicit per-event-date decision that
// outranks all inference. Keyed uniquely by (owner, event, date).
type AvailabilityOverride struct {
	ID        string // UUID
	OwnerID   string
	EventID   string
	DateID    string
	Available bool
	Reason    string // e.g. "conflict" when overriding a locked slot
	UpdatedAt time.Time
}

// UserEventLink binds an owner to a participant identity inside one
// event. One per (owner, event); ParticipantID may be empty (unlinked).
type UserEventLink struct {
	ID            string // UUID
	OwnerID       string
	EventID       string
	ParticipantID string // Empty when the owner has not answered yet
	AutoSync      bool   // Include in scheduled background sync
	CreatedAt     time.Time
}

// Linked reports whether the link carries a participant identity.
func (l *UserEventLink) Linked() bool { return l.ParticipantID != "" }

// Event is the minimal event record the engine needs: identity, a
// display name, and whether the organizer has finalized it.
type Event struct {
	ID        string // UUID
	Name      string
	Finalized bool
	CreatedAt time.Time
}

// CandidateDate is one proposed slot of an event.
type CandidateDate struct {
	ID      string    // UUID
	EventID string
	Start   time.Time // Inclusive
	End     time.Time // Exclusive
}

// FinalizedDate is a candidate date locked in as an event's outcome.
// The interval is carried along so conflict detection does not need a
// second lookup.
type FinalizedDate struct {
	EventID string
	DateID  string
	Start   time.Time
	End     time.Time
}

// AvailabilityEntry is one persisted availability cell for a
// participant: date and yes/no.
type AvailabilityEntry struct {
	DateID    string
	Available bool
}

// SyncOperation is an audit record of one mutating command. Operations
// are created in memory with ID=0 and receive an auto-increment ID
// when persisted.
type SyncOperation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
	StartedAt  time.Time
	FinishedAt *time.Time
}
