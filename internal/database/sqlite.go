package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"schedsync/internal/database/migrations"
	"schedsync/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements the sched store interfaces (Database,
// EventStore, ParticipantStore) over a single SQLite database.
type SQLiteDatabase struct {
	db   *sql.DB
	path string
}

// NewSQLiteDatabase opens a SQLite database at path.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: db, path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing connection. The caller is
// responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: db}
}

// OpenConnection opens and configures a SQLite connection with the
// PRAGMAs the schema relies on. Exported for tools and tests that need
// a properly configured connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Foreign keys are OFF by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// CheckMigrations verifies the schema is at the latest version.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate runs all pending migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	return s.db.Close()
}

// Schedule block operations

func (s *SQLiteDatabase) UpsertBlock(block *model.ScheduleBlock) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO schedule_blocks (id, owner_id, start_at, end_at, available, source, origin_event_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, start_at, end_at) DO UPDATE SET
			available = excluded.available,
			source = excluded.source,
			origin_event_id = excluded.origin_event_id,
			updated_at = excluded.updated_at`,
		block.ID, block.OwnerID, block.Start, block.End, block.Available, string(block.Source), block.OriginEventID, block.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting schedule block: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindBlocksInRange(ownerID string, from, to time.Time) ([]*model.ScheduleBlock, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, owner_id, start_at, end_at, available, source, origin_event_id, updated_at
		FROM schedule_blocks
		WHERE owner_id = ? AND start_at <= ? AND end_at >= ?
		ORDER BY start_at`,
		ownerID, to, from)
	if err != nil {
		return nil, fmt.Errorf("finding blocks in range: %w", err)
	}
	defer rows.Close()

	var blocks []*model.ScheduleBlock
	for rows.Next() {
		var b model.ScheduleBlock
		var source string
		if err := rows.Scan(&b.ID, &b.OwnerID, &b.Start, &b.End, &b.Available, &source, &b.OriginEventID, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning schedule block: %w", err)
		}
		b.Source = model.Source(source)
		blocks = append(blocks, &b)
	}
	return blocks, rows.Err()
}

// Schedule template operations

func (s *SQLiteDatabase) SaveTemplate(tmpl *model.ScheduleTemplate) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO schedule_templates (id, owner_id, weekday, start_minute, end_minute, available, source, sample_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, weekday, start_minute, end_minute, source) DO UPDATE SET
			available = excluded.available,
			sample_count = excluded.sample_count,
			updated_at = excluded.updated_at`,
		tmpl.ID, tmpl.OwnerID, int(tmpl.Weekday), tmpl.StartMinute, tmpl.EndMinute, tmpl.Available, string(tmpl.Source), tmpl.SampleCount, tmpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving schedule template: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindTemplatesByKey(ownerID string, weekday time.Weekday, startMinute, endMinute int) ([]*model.ScheduleTemplate, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, owner_id, weekday, start_minute, end_minute, available, source, sample_count, updated_at
		FROM schedule_templates
		WHERE owner_id = ? AND weekday = ? AND start_minute = ? AND end_minute = ?`,
		ownerID, int(weekday), startMinute, endMinute)
	if err != nil {
		return nil, fmt.Errorf("finding templates by key: %w", err)
	}
	defer rows.Close()
	return scanTemplates(rows)
}

func (s *SQLiteDatabase) ListTemplates(ownerID string) ([]*model.ScheduleTemplate, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, owner_id, weekday, start_minute, end_minute, available, source, sample_count, updated_at
		FROM schedule_templates
		WHERE owner_id = ?
		ORDER BY weekday, start_minute`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()
	return scanTemplates(rows)
}

func (s *SQLiteDatabase) FindTemplate(ownerID, templateID string) (*model.ScheduleTemplate, error) {
	row := s.db.QueryRowContext(context.Background(), `
		SELECT id, owner_id, weekday, start_minute, end_minute, available, source, sample_count, updated_at
		FROM schedule_templates
		WHERE owner_id = ? AND id = ?`,
		ownerID, templateID)

	tmpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("finding template: %w", err)
	}
	return tmpl, nil
}

func (s *SQLiteDatabase) DeleteTemplate(ownerID, templateID string) error {
	_, err := s.db.ExecContext(context.Background(),
		`DELETE FROM schedule_templates WHERE owner_id = ? AND id = ?`, ownerID, templateID)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	return nil
}

func scanTemplates(rows *sql.Rows) ([]*model.ScheduleTemplate, error) {
	var tmpls []*model.ScheduleTemplate
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule template: %w", err)
		}
		tmpls = append(tmpls, tmpl)
	}
	return tmpls, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*model.ScheduleTemplate, error) {
	var t model.ScheduleTemplate
	var weekday int
	var source string
	if err := row.Scan(&t.ID, &t.OwnerID, &weekday, &t.StartMinute, &t.EndMinute, &t.Available, &source, &t.SampleCount, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Weekday = time.Weekday(weekday)
	t.Source = model.Source(source)
	return &t, nil
}

// Availability override operations

func (s *SQLiteDatabase) UpsertOverride(o *model.AvailabilityOverride) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO availability_overrides (id, owner_id, event_id, date_id, available, reason, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, event_id, date_id) DO UPDATE SET
			available = excluded.available,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		o.ID, o.OwnerID, o.EventID, o.DateID, o.Available, o.Reason, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting override: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindOverridesByEvent(ownerID, eventID string) ([]*model.AvailabilityOverride, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, owner_id, event_id, date_id, available, reason, updated_at
		FROM availability_overrides
		WHERE owner_id = ? AND event_id = ?`,
		ownerID, eventID)
	if err != nil {
		return nil, fmt.Errorf("finding overrides: %w", err)
	}
	defer rows.Close()

	var overrides []*model.AvailabilityOverride
	for rows.Next() {
		var o model.AvailabilityOverride
		if err := rows.Scan(&o.ID, &o.OwnerID, &o.EventID, &o.DateID, &o.Available, &o.Reason, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning override: %w", err)
		}
		overrides = append(overrides, &o)
	}
	return overrides, rows.Err()
}

// Link operations

func (s *SQLiteDatabase) SaveLink(link *model.UserEventLink) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO user_event_links (id, owner_id, event_id, participant_id, auto_sync, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, event_id) DO UPDATE SET
			participant_id = excluded.participant_id,
			auto_sync = excluded.auto_sync`,
		link.ID, link.OwnerID, link.EventID, link.ParticipantID, link.AutoSync, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving link: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindLink(ownerID, eventID string) (*model.UserEventLink, error) {
	row := s.db.QueryRowContext(context.Background(), `
		SELECT id, owner_id, event_id, participant_id, auto_sync, created_at
		FROM user_event_links
		WHERE owner_id = ? AND event_id = ?`,
		ownerID, eventID)

	var l model.UserEventLink
	if err := row.Scan(&l.ID, &l.OwnerID, &l.EventID, &l.ParticipantID, &l.AutoSync, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("finding link: %w", err)
	}
	return &l, nil
}

func (s *SQLiteDatabase) ListLinks(ownerID string) ([]*model.UserEventLink, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, owner_id, event_id, participant_id, auto_sync, created_at
		FROM user_event_links
		WHERE owner_id = ?
		ORDER BY created_at`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	defer rows.Close()

	var links []*model.UserEventLink
	for rows.Next() {
		var l model.UserEventLink
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.EventID, &l.ParticipantID, &l.AutoSync, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		links = append(links, &l)
	}
	return links, rows.Err()
}

func (s *SQLiteDatabase) ListAutoSyncOwners() ([]string, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT DISTINCT owner_id
		FROM user_event_links
		WHERE auto_sync = 1 AND participant_id != ''
		ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("listing auto-sync owners: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scanning owner: %w", err)
		}
		owners = append(owners, owner)
	}
	return owners, rows.Err()
}

// Operation audit

func (s *SQLiteDatabase) CreateSyncOperation(operation, parameters string) (*model.SyncOperation, error) {
	startedAt := time.Now().UTC()
	res, err := s.db.ExecContext(context.Background(), `
		INSERT INTO sync_operations (operation, parameters, status, started_at)
		VALUES (?, ?, '', ?)`,
		operation, parameters, startedAt)
	if err != nil {
		return nil, fmt.Errorf("creating sync operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return &model.SyncOperation{ID: id, Operation: operation, Parameters: parameters, StartedAt: startedAt}, nil
}

func (s *SQLiteDatabase) FinishSyncOperation(id int64, status string) error {
	_, err := s.db.ExecContext(context.Background(),
		`UPDATE sync_operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("finishing sync operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListSyncOperations(limit int) ([]*model.SyncOperation, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, operation, parameters, status, started_at, finished_at
		FROM sync_operations
		ORDER BY id DESC
		LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync operations: %w", err)
	}
	defer rows.Close()

	var ops []*model.SyncOperation
	for rows.Next() {
		var op model.SyncOperation
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.Status, &op.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning sync operation: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			op.FinishedAt = &t
		}
		ops = append(ops, &op)
	}
	return ops, rows.Err()
}

// Event store operations

func (s *SQLiteDatabase) GetEvent(eventID string) (*model.Event, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT id, name, finalized, created_at FROM events WHERE id = ?`, eventID)

	var e model.Event
	if err := row.Scan(&e.ID, &e.Name, &e.Finalized, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return &e, nil
}

func (s *SQLiteDatabase) ListCandidateDates(eventID string) ([]*model.CandidateDate, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT id, event_id, start_at, end_at
		FROM event_dates
		WHERE event_id = ?
		ORDER BY start_at`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("listing candidate dates: %w", err)
	}
	defer rows.Close()

	var dates []*model.CandidateDate
	for rows.Next() {
		var d model.CandidateDate
		if err := rows.Scan(&d.ID, &d.EventID, &d.Start, &d.End); err != nil {
			return nil, fmt.Errorf("scanning candidate date: %w", err)
		}
		dates = append(dates, &d)
	}
	return dates, rows.Err()
}

func (s *SQLiteDatabase) ListFinalizedDates(eventID string) ([]*model.FinalizedDate, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT f.event_id, f.date_id, d.start_at, d.end_at
		FROM finalized_dates f
		JOIN event_dates d ON d.id = f.date_id
		WHERE f.event_id = ?
		ORDER BY d.start_at`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("listing finalized dates: %w", err)
	}
	defer rows.Close()

	var dates []*model.FinalizedDate
	for rows.Next() {
		var d model.FinalizedDate
		if err := rows.Scan(&d.EventID, &d.DateID, &d.Start, &d.End); err != nil {
			return nil, fmt.Errorf("scanning finalized date: %w", err)
		}
		dates = append(dates, &d)
	}
	return dates, rows.Err()
}

func (s *SQLiteDatabase) IsFinalized(eventID string) (bool, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT finalized FROM events WHERE id = ?`, eventID)

	var finalized bool
	if err := row.Scan(&finalized); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("checking finalized flag: %w", err)
	}
	return finalized, nil
}

// Participant store operations

func (s *SQLiteDatabase) CreateParticipant(eventID, name string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO participants (id, event_id, name) VALUES (?, ?, ?)`,
		id, eventID, name)
	if err != nil {
		return "", fmt.Errorf("creating participant: %w", err)
	}
	return id, nil
}

func (s *SQLiteDatabase) GetAvailability(participantID string) ([]*model.AvailabilityEntry, error) {
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT date_id, available
		FROM availabilities
		WHERE participant_id = ?`,
		participantID)
	if err != nil {
		return nil, fmt.Errorf("getting availability: %w", err)
	}
	defer rows.Close()

	var entries []*model.AvailabilityEntry
	for rows.Next() {
		var e model.AvailabilityEntry
		if err := rows.Scan(&e.DateID, &e.Available); err != nil {
			return nil, fmt.Errorf("scanning availability entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ReplaceAvailability swaps the participant's entire availability
// row-set for one event inside a single transaction. A partial write
// is never visible: either the whole set replaces the old rows or the
// transaction rolls back.
func (s *SQLiteDatabase) ReplaceAvailability(participantID, eventID string, entries []*model.AvailabilityEntry) error {
	ctx := context.Background()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM availabilities WHERE participant_id = ? AND event_id = ?`,
		participantID, eventID); err != nil {
		return fmt.Errorf("clearing availability: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO availabilities (participant_id, event_id, date_id, available) VALUES (?, ?, ?, ?)`,
			participantID, eventID, e.DateID, e.Available); err != nil {
			return fmt.Errorf("inserting availability for date %s: %w", e.DateID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing availability replace: %w", err)
	}
	return nil
}
