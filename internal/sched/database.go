package sched

import (
	"time"

	"schedsync/internal/model"
)

// Database provides an interface for preference-record storage.
// All writes use natural composite keys with replace-on-conflict
// semantics, so retrying after a timeout is safe and never duplicates.
// Find methods return (nil, nil) when no record matches.
type Database interface {
	// Schedule block operations

	// UpsertBlock writes a block keyed by (owner, start, end).
	// An existing block for the same key is overwritten in place,
	// keeping its ID.
	UpsertBlock(block *model.ScheduleBlock) error

	// FindBlocksInRange returns the owner's blocks whose interval
	// intersects [from, to], ordered by start time.
	FindBlocksInRange(ownerID string, from, to time.Time) ([]*model.ScheduleBlock, error)

	// Schedule template operations

	// SaveTemplate upserts a template keyed by
	// (owner, weekday, start, end, source).
	SaveTemplate(tmpl *model.ScheduleTemplate) error

	// FindTemplatesByKey returns the templates for one
	// (owner, weekday, start, end) key, at most one per source.
	FindTemplatesByKey(ownerID string, weekday time.Weekday, startMinute, endMinute int) ([]*model.ScheduleTemplate, error)

	// ListTemplates returns all of the owner's templates ordered by
	// weekday, then start minute.
	ListTemplates(ownerID string) ([]*model.ScheduleTemplate, error)

	// FindTemplate returns a template by ID, owner-checked.
	FindTemplate(ownerID, templateID string) (*model.ScheduleTemplate, error)

	// DeleteTemplate removes a template by ID, owner-checked.
	DeleteTemplate(ownerID, templateID string) error

	// Availability override operations

	// UpsertOverride writes an override keyed by (owner, event, date).
	UpsertOverride(o *model.AvailabilityOverride) error

	// FindOverridesByEvent returns the owner's overrides for one event.
	FindOverridesByEvent(ownerID, eventID string) ([]*model.AvailabilityOverride, error)

	// Link operations

	// SaveLink upserts a link keyed by (owner, event).
	SaveLink(link *model.UserEventLink) error

	// FindLink returns the owner's link for one event.
	FindLink(ownerID, eventID string) (*model.UserEventLink, error)

	// ListLinks returns all of the owner's event links.
	ListLinks(ownerID string) ([]*model.UserEventLink, error)

	// ListAutoSyncOwners returns the distinct owners having at least
	// one linked event with auto-sync enabled.
	ListAutoSyncOwners() ([]string, error)

	// Operation audit

	// CreateSyncOperation records the start of a mutating command and
	// returns the record with its auto-increment ID assigned.
	CreateSyncOperation(operation, parameters string) (*model.SyncOperation, error)

	// FinishSyncOperation stamps the finish time and final status.
	FinishSyncOperation(id int64, status string) error

	// ListSyncOperations returns the most recent operations, newest first.
	ListSyncOperations(limit int) ([]*model.SyncOperation, error)

	// Close closes the database connection.
	Close() error
}
