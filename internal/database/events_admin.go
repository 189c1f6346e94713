package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"schedsync/internal/model"
)

// Event-subsystem write operations. Event creation and finalization
// are owned by the organizer-facing surface, not the sync engine; the
// engine only reads these tables through the EventStore interface.
// They live here because the SQLite database hosts both domains.

// CreateEvent inserts a new event and returns it.
func (s *SQLiteDatabase) CreateEvent(name string) (*model.Event, error) {
	e := &model.Event{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO events (id, name, finalized, created_at) VALUES (?, ?, 0, ?)`,
		e.ID, e.Name, e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return e, nil
}

// AddCandidateDate adds one proposed slot to an event.
func (s *SQLiteDatabase) AddCandidateDate(eventID string, start, end time.Time) (*model.CandidateDate, error) {
	d := &model.CandidateDate{
		ID:      uuid.New().String(),
		EventID: eventID,
		Start:   start,
		End:     end,
	}
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO event_dates (id, event_id, start_at, end_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.EventID, d.Start, d.End)
	if err != nil {
		return nil, fmt.Errorf("adding candidate date: %w", err)
	}
	return d, nil
}

// FinalizeDate marks one candidate date as an event's locked outcome
// and flags the event finalized.
func (s *SQLiteDatabase) FinalizeDate(eventID, dateID string) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO finalized_dates (event_id, date_id) VALUES (?, ?)
		 ON CONFLICT (event_id, date_id) DO NOTHING`,
		eventID, dateID); err != nil {
		return fmt.Errorf("recording finalized date: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE events SET finalized = 1 WHERE id = ?`, eventID); err != nil {
		return fmt.Errorf("flagging event finalized: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing finalization: %w", err)
	}
	return nil
}
