package sched

import (
	"fmt"

	"schedsync/internal/model"
)

// LockedDates returns the subset of candidateDates whose interval
// overlaps a finalized date of any other event linked to the owner.
// Finalized dates of eventID itself never conflict with it.
func (s *Service) LockedDates(ownerID, eventID string, candidateDates []*model.CandidateDate) (map[string]bool, error) {
	exclude := map[string]bool{eventID: true}
	return s.lockedDates(ownerID, exclude, candidateDates)
}

// lockedDates is the shared conflict check. Finalized dates of events
// in exclude are ignored; the preview builder uses this to drop the
// excluded event's finalized dates as well as the event's own.
func (s *Service) lockedDates(ownerID string, exclude map[string]bool, candidateDates []*model.CandidateDate) (map[string]bool, error) {
	links, err := s.database.ListLinks(ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}

	var finalized []Interval
	for _, link := range links {
		if exclude[link.EventID] {
			continue
		}
		dates, err := s.events.ListFinalizedDates(link.EventID)
		if err != nil {
			return nil, fmt.Errorf("listing finalized dates for event %s: %w", link.EventID, err)
		}
		for _, fd := range dates {
			finalized = append(finalized, NewInterval(fd.Start, fd.End))
		}
	}

	locked := make(map[string]bool)
	for _, d := range candidateDates {
		iv := NewInterval(d.Start, d.End)
		for _, f := range finalized {
			if iv.Overlaps(f) {
				locked[d.ID] = true
				break
			}
		}
	}
	return locked, nil
}
