package sched

import (
	"fmt"
	"time"

	"schedsync/internal/model"
)

// Service is the orchestration layer that coordinates preference
// storage, event data, and participant availability to perform the
// high-level scheduling operations needed by the CLI. It holds no
// mutable state between calls; correctness under concurrent use relies
// on the store's upsert-with-unique-key semantics.
type Service struct {
	database     Database
	events       EventStore
	participants ParticipantStore
	logger       Logger
	clock        Clock
	idgen        IDGenerator
}

// NewService creates a new Service with the provided dependencies.
func NewService(database Database, events EventStore, participants ParticipantStore, logger Logger, clock Clock, idgen IDGenerator) *Service {
	return &Service{
		database:     database,
		events:       events,
		participants: participants,
		logger:       logger,
		clock:        clock,
		idgen:        idgen,
	}
}

// UpsertBlocks records one schedule block per candidate date of an
// event, with availability derived from membership in selectedDateIDs.
// Blocks are keyed by (owner, start, end), so calling this twice with
// the same input produces the same stored state.
func (s *Service) UpsertBlocks(ownerID, eventID string, dates []*model.CandidateDate, selectedDateIDs []string) error {
	if ownerID == "" {
		return ErrNotAuthenticated
	}

	selected := idSet(selectedDateIDs)
	now := s.clock.Now()

	for _, d := range dates {
		block := &model.ScheduleBlock{
			ID:            s.idgen.New(),
			OwnerID:       ownerID,
			Start:         d.Start,
			End:           d.End,
			Available:     selected[d.ID],
			Source:        model.SourceEvent,
			OriginEventID: eventID,
			UpdatedAt:     now,
		}
		if err := s.database.UpsertBlock(block); err != nil {
			return fmt.Errorf("upserting block for date %s: %w", d.ID, err)
		}
	}

	s.logger.Debug("blocks upserted", "owner", ownerID, "event", eventID, "count", len(dates))
	return nil
}

// SaveOverrides upserts one availability override per id in
// overrideDateIDs, with availability derived from membership in
// selectedDateIDs. A no-op when overrideDateIDs is empty.
func (s *Service) SaveOverrides(ownerID, eventID string, overrideDateIDs, selectedDateIDs []string) error {
	if len(overrideDateIDs) == 0 {
		return nil
	}
	if ownerID == "" {
		return ErrNotAuthenticated
	}

	selected := idSet(selectedDateIDs)
	now := s.clock.Now()

	for _, dateID := range overrideDateIDs {
		o := &model.AvailabilityOverride{
			ID:        s.idgen.New(),
			OwnerID:   ownerID,
			EventID:   eventID,
			DateID:    dateID,
			Available: selected[dateID],
			Reason:    "conflict",
			UpdatedAt: now,
		}
		if err := s.database.UpsertOverride(o); err != nil {
			return fmt.Errorf("upserting override for date %s: %w", dateID, err)
		}
	}

	s.logger.Debug("overrides saved", "owner", ownerID, "event", eventID, "count", len(overrideDateIDs))
	return nil
}

// CreateManualTemplate adds a manual weekly template for the owner.
// Manual templates are authoritative: the learner never touches them.
func (s *Service) CreateManualTemplate(ownerID string, weekday, startMinute, endMinute int, available bool) (*model.ScheduleTemplate, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}
	if weekday < 0 || weekday > 6 {
		return nil, &ValidationError{Field: "weekday", Reason: "must be between 0 (Sunday) and 6 (Saturday)"}
	}
	if startMinute < 0 || endMinute > minutesPerDay {
		return nil, &ValidationError{Field: "window", Reason: "must lie within a single day"}
	}
	if startMinute >= endMinute {
		return nil, &ValidationError{Field: "window", Reason: "start must be before end"}
	}

	tmpl := &model.ScheduleTemplate{
		ID:          s.idgen.New(),
		OwnerID:     ownerID,
		Weekday:     time.Weekday(weekday),
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Available:   available,
		Source:      model.SourceManual,
		UpdatedAt:   s.clock.Now(),
	}
	if err := s.database.SaveTemplate(tmpl); err != nil {
		return nil, fmt.Errorf("saving manual template: %w", err)
	}

	s.logger.Info("manual template created", "owner", ownerID, "weekday", tmpl.Weekday, "window", windowString(startMinute, endMinute))
	return tmpl, nil
}

// RemoveTemplate deletes one of the owner's templates.
func (s *Service) RemoveTemplate(ownerID, templateID string) error {
	if ownerID == "" {
		return ErrNotAuthenticated
	}
	tmpl, err := s.database.FindTemplate(ownerID, templateID)
	if err != nil {
		return fmt.Errorf("finding template: %w", err)
	}
	if tmpl == nil {
		return &ValidationError{Field: "template", Reason: "no such template"}
	}
	if err := s.database.DeleteTemplate(ownerID, templateID); err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	s.logger.Info("template removed", "owner", ownerID, "template", templateID)
	return nil
}

// ListTemplates returns all of the owner's templates.
func (s *Service) ListTemplates(ownerID string) ([]*model.ScheduleTemplate, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}
	tmpls, err := s.database.ListTemplates(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return tmpls, nil
}

// EnsureLink creates or updates the owner's link to an event. The
// participant id may be empty when the owner has not answered yet.
func (s *Service) EnsureLink(ownerID, eventID, participantID string, autoSync bool) (*model.UserEventLink, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}

	link, err := s.database.FindLink(ownerID, eventID)
	if err != nil {
		return nil, fmt.Errorf("finding link: %w", err)
	}
	if link == nil {
		link = &model.UserEventLink{
			ID:        s.idgen.New(),
			OwnerID:   ownerID,
			EventID:   eventID,
			CreatedAt: s.clock.Now(),
		}
	}
	if participantID != "" {
		link.ParticipantID = participantID
	}
	link.AutoSync = autoSync

	if err := s.database.SaveLink(link); err != nil {
		return nil, fmt.Errorf("saving link: %w", err)
	}
	return link, nil
}

// ListLinks returns all of the owner's event links.
func (s *Service) ListLinks(ownerID string) ([]*model.UserEventLink, error) {
	if ownerID == "" {
		return nil, ErrNotAuthenticated
	}
	links, err := s.database.ListLinks(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	return links, nil
}

// GetHistory returns the most recent sync operations, newest first.
func (s *Service) GetHistory(limit int) ([]*model.SyncOperation, error) {
	ops, err := s.database.ListSyncOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing sync operations: %w", err)
	}
	return ops, nil
}

// idSet builds a membership set from a slice of ids.
func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func windowString(startMinute, endMinute int) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", startMinute/60, startMinute%60, endMinute/60, endMinute%60)
}
