package sched

import "schedsync/internal/model"

// EventStore is the read-side contract onto the event subsystem. Event
// creation and finalization are owned elsewhere; the engine only
// consumes candidate dates and finalized outcomes.
type EventStore interface {
	// GetEvent returns an event by ID, or (nil, nil) if it does not exist.
	GetEvent(eventID string) (*model.Event, error)

	// ListCandidateDates returns the event's proposed slots ordered by
	// start time.
	ListCandidateDates(eventID string) ([]*model.CandidateDate, error)

	// ListFinalizedDates returns the event's locked outcome dates with
	// their intervals.
	ListFinalizedDates(eventID string) ([]*model.FinalizedDate, error)

	// IsFinalized reports whether the event has been finalized.
	IsFinalized(eventID string) (bool, error)
}

// ParticipantStore is the contract onto per-participant availability
// rows. ReplaceAvailability must be atomic: either every row for the
// event is replaced or none is.
type ParticipantStore interface {
	// CreateParticipant registers a participant identity inside an
	// event and returns its id. Called when an owner answers an event
	// for the first time.
	CreateParticipant(eventID, name string) (string, error)

	// GetAvailability returns the participant's stored availability
	// entries across all dates.
	GetAvailability(participantID string) ([]*model.AvailabilityEntry, error)

	// ReplaceAvailability atomically replaces the participant's entire
	// availability row-set for one event. Full-set semantics: dates
	// absent from entries end up with no row.
	ReplaceAvailability(participantID, eventID string, entries []*model.AvailabilityEntry) error
}
