package sched

import (
	"fmt"

	"schedsync/internal/model"
)

// ScheduleContext is the advisory input for rendering one event's
// answer form: which dates are locked by conflicts, which checkboxes
// to pre-tick, and which dates carry saved overrides. Building it
// never writes anything.
type ScheduleContext struct {
	IsAuthenticated bool
	LockedDateIDs   []string
	AutoFill        map[string]bool // Suggested availability; unknowns omitted
	OverrideDateIDs []string
}

// emptyContext is what an unauthenticated caller gets: a plain blank
// form with no suggestions.
func emptyContext() *ScheduleContext {
	return &ScheduleContext{
		LockedDateIDs:   []string{},
		AutoFill:        map[string]bool{},
		OverrideDateIDs: []string{},
	}
}

// BuildContext composes the conflict detector and the resolver for one
// event's candidate dates. Locked dates are skipped by auto-fill; a
// resolver result of Unknown is omitted rather than stored as false.
func (s *Service) BuildContext(ownerID, eventID string, candidateDates []*model.CandidateDate) (*ScheduleContext, error) {
	if ownerID == "" {
		return emptyContext(), nil
	}

	ctx := emptyContext()
	ctx.IsAuthenticated = true
	if len(candidateDates) == 0 {
		return ctx, nil
	}

	blocks, templates, err := s.loadPreferences(ownerID, candidateDates)
	if err != nil {
		return nil, err
	}

	locked, err := s.LockedDates(ownerID, eventID, candidateDates)
	if err != nil {
		return nil, fmt.Errorf("detecting conflicts: %w", err)
	}

	for _, d := range candidateDates {
		if locked[d.ID] {
			ctx.LockedDateIDs = append(ctx.LockedDateIDs, d.ID)
			continue
		}
		switch Resolve(NewInterval(d.Start, d.End), blocks, templates) {
		case model.Available:
			ctx.AutoFill[d.ID] = true
		case model.Unavailable:
			ctx.AutoFill[d.ID] = false
		}
	}

	overrides, err := s.database.FindOverridesByEvent(ownerID, eventID)
	if err != nil {
		return nil, fmt.Errorf("loading overrides: %w", err)
	}
	for _, o := range overrides {
		ctx.OverrideDateIDs = append(ctx.OverrideDateIDs, o.DateID)
	}

	return ctx, nil
}

// loadPreferences fetches the owner's blocks within the coarse
// [min start, max end] range of the candidates, plus all templates.
// Templates recur weekly, so no range prefilter applies to them.
func (s *Service) loadPreferences(ownerID string, candidateDates []*model.CandidateDate) ([]*model.ScheduleBlock, []*model.ScheduleTemplate, error) {
	minStart := candidateDates[0].Start
	maxEnd := candidateDates[0].End
	for _, d := range candidateDates[1:] {
		if d.Start.Before(minStart) {
			minStart = d.Start
		}
		if d.End.After(maxEnd) {
			maxEnd = d.End
		}
	}

	blocks, err := s.database.FindBlocksInRange(ownerID, minStart, maxEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("loading blocks: %w", err)
	}
	templates, err := s.database.ListTemplates(ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading templates: %w", err)
	}
	return blocks, templates, nil
}
