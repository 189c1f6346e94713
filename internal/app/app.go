package app

import (
	"fmt"
	"os"
	"time"

	"schedsync/internal/config"
	"schedsync/internal/database"
	"schedsync/internal/model"
	"schedsync/internal/sched"
)

// App is the application layer between the CLI and the sched service.
// It constructs all dependencies from config, exposes high-level
// operations keyed to the configured owner, and manages the DB
// lifecycle on Close.
type App struct {
	cfg     *config.Config
	db      *database.SQLiteDatabase
	service *sched.Service
	logger  sched.Logger
	op      *Operation
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Answer",
// "SyncApply"). The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapter := &slogAdapter{l: logger}
	svc := sched.NewService(db, db, db, adapter, sched.RealClock{}, sched.UUIDGenerator{})

	return &App{
		cfg:     cfg,
		db:      db,
		service: svc,
		logger:  adapter,
		op:      NewOperation(operation, ""),
		logFile: logFile,
	}, nil
}

// Service exposes the underlying sched service; the daemon reuses it.
func (a *App) Service() *sched.Service { return a.service }

// Database exposes the store as the engine-facing interface.
func (a *App) Database() sched.Database { return a.db }

// Logger exposes the operation-scoped logger.
func (a *App) Logger() sched.Logger { return a.logger }

// OwnerID returns the configured owner identity. The core never reads
// it implicitly; every call below passes it explicitly.
func (a *App) OwnerID() string { return a.cfg.OwnerID }

// SetStatus overrides the final status recorded for this operation.
func (a *App) SetStatus(status string) { a.op.Status = status }

// persistOperation saves the operation to the database, giving it an
// auto-increment ID. Only called for DB-mutating commands.
func (a *App) persistOperation() error {
	if a.op.Persisted() {
		return nil // already persisted
	}
	dbOp, err := a.db.CreateSyncOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = dbOp.ID
	return nil
}

// Context builds the answer-form context for one event and returns it
// with the event's candidate dates.
func (a *App) Context(eventID string) (*sched.ScheduleContext, []*model.CandidateDate, error) {
	dates, err := a.db.ListCandidateDates(eventID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing candidate dates: %w", err)
	}
	ctx, err := a.service.BuildContext(a.cfg.OwnerID, eventID, dates)
	if err != nil {
		return nil, nil, err
	}
	return ctx, dates, nil
}

// Answer records the owner's availability for one event: persists the
// participant's availability rows, then feeds the preference store and
// the template learner. overrideDateIDs names locked dates the owner
// consciously answered anyway.
func (a *App) Answer(eventID string, selectedDateIDs, overrideDateIDs []string, autoSync bool) error {
	owner := a.cfg.OwnerID
	if owner == "" {
		return sched.ErrNotAuthenticated
	}
	if err := a.persistOperation(); err != nil {
		return err
	}

	event, err := a.db.GetEvent(eventID)
	if err != nil {
		return fmt.Errorf("loading event: %w", err)
	}
	if event == nil {
		return sched.ErrEventNotFound
	}

	dates, err := a.db.ListCandidateDates(eventID)
	if err != nil {
		return fmt.Errorf("listing candidate dates: %w", err)
	}

	// First answer creates the participant identity and the link.
	link, err := a.db.FindLink(owner, eventID)
	if err != nil {
		return fmt.Errorf("finding link: %w", err)
	}
	participantID := ""
	if link != nil {
		participantID = link.ParticipantID
	}
	if participantID == "" {
		participantID, err = a.db.CreateParticipant(eventID, owner)
		if err != nil {
			return fmt.Errorf("creating participant: %w", err)
		}
	}
	if _, err := a.service.EnsureLink(owner, eventID, participantID, autoSync); err != nil {
		return err
	}

	selected := make(map[string]bool, len(selectedDateIDs))
	for _, id := range selectedDateIDs {
		selected[id] = true
	}
	entries := make([]*model.AvailabilityEntry, 0, len(dates))
	for _, d := range dates {
		entries = append(entries, &model.AvailabilityEntry{DateID: d.ID, Available: selected[d.ID]})
	}
	if err := a.db.ReplaceAvailability(participantID, eventID, entries); err != nil {
		return fmt.Errorf("saving answer: %w", err)
	}

	// The answer is persisted; now project it onto the personal schedule.
	if err := a.service.UpsertBlocks(owner, eventID, dates, selectedDateIDs); err != nil {
		return err
	}
	if err := a.service.SaveOverrides(owner, eventID, overrideDateIDs, selectedDateIDs); err != nil {
		return err
	}
	return a.service.LearnFromAnswer(owner, dates, selectedDateIDs)
}

// Preview builds sync previews for the configured owner.
func (a *App) Preview(opts sched.PreviewOptions) ([]*sched.SyncPreviewEvent, error) {
	return a.service.Preview(a.cfg.OwnerID, opts)
}

// Apply applies an approved selection for one event.
func (a *App) Apply(eventID string, selections map[string]bool, overwriteProtected, allowFinalized bool) (*sched.ApplyResult, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	return a.service.Apply(a.cfg.OwnerID, eventID, selections, overwriteProtected, allowFinalized)
}

// SyncAll previews and applies all pending changes across linked events.
func (a *App) SyncAll(allowFinalized bool) (*sched.SyncReport, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	return a.service.SyncAll(a.cfg.OwnerID, sched.SyncOptions{AllowFinalized: allowFinalized})
}

// AddTemplate creates a manual weekly template.
func (a *App) AddTemplate(weekday, startMinute, endMinute int, available bool) (*model.ScheduleTemplate, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}
	return a.service.CreateManualTemplate(a.cfg.OwnerID, weekday, startMinute, endMinute, available)
}

// RemoveTemplate deletes one of the owner's templates.
func (a *App) RemoveTemplate(templateID string) error {
	if err := a.persistOperation(); err != nil {
		return err
	}
	return a.service.RemoveTemplate(a.cfg.OwnerID, templateID)
}

// ListTemplates returns the owner's templates.
func (a *App) ListTemplates() ([]*model.ScheduleTemplate, error) {
	return a.service.ListTemplates(a.cfg.OwnerID)
}

// ListLinks returns the owner's event links.
func (a *App) ListLinks() ([]*model.UserEventLink, error) {
	return a.service.ListLinks(a.cfg.OwnerID)
}

// GetEvent returns an event by id.
func (a *App) GetEvent(eventID string) (*model.Event, error) {
	return a.db.GetEvent(eventID)
}

// History returns the most recent operations, newest first.
func (a *App) History(limit int) ([]*model.SyncOperation, error) {
	return a.service.GetHistory(limit)
}

// Close finalizes the operation record and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.db.FinishSyncOperation(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.db.Close(); err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
