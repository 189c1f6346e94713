package sched

import (
	"fmt"

	"schedsync/internal/model"
)

// LearnFromAnswer updates the owner's learned weekly templates from a
// concrete per-event answer. Each candidate date votes for its weekday
// window with a leaky counter:
//
//   - no learned template for the key: insert with sample count 1
//   - agrees with the stored polarity: sample count +1
//   - disagrees: sample count -1; at zero or below the polarity flips
//     to the new value and the count resets to 1
//
// One outlier answer cannot destabilize an established template, but a
// consistent run of opposite answers eventually wins. Keys covered by
// a manual template are skipped entirely: manual templates are the
// user's ground truth and are never mutated here.
func (s *Service) LearnFromAnswer(ownerID string, candidateDates []*model.CandidateDate, selectedDateIDs []string) error {
	if ownerID == "" {
		return ErrNotAuthenticated
	}

	selected := idSet(selectedDateIDs)

	for _, d := range candidateDates {
		weekday, startMinute, endMinute, ok := templateKey(NewInterval(d.Start, d.End))
		if !ok {
			// Multi-day slots have no weekly key; nothing to learn.
			continue
		}
		chosen := selected[d.ID]

		existing, err := s.database.FindTemplatesByKey(ownerID, weekday, startMinute, endMinute)
		if err != nil {
			return fmt.Errorf("looking up templates for %s %s: %w", weekday, windowString(startMinute, endMinute), err)
		}

		var learned *model.ScheduleTemplate
		manual := false
		for _, t := range existing {
			switch t.Source {
			case model.SourceManual:
				manual = true
			case model.SourceLearned:
				learned = t
			}
		}
		if manual {
			continue
		}

		if learned == nil {
			learned = &model.ScheduleTemplate{
				ID:          s.idgen.New(),
				OwnerID:     ownerID,
				Weekday:     weekday,
				StartMinute: startMinute,
				EndMinute:   endMinute,
				Available:   chosen,
				Source:      model.SourceLearned,
				SampleCount: 1,
			}
		} else if learned.Available == chosen {
			learned.SampleCount++
		} else {
			learned.SampleCount--
			if learned.SampleCount <= 0 {
				learned.Available = chosen
				learned.SampleCount = 1
			}
		}
		learned.UpdatedAt = s.clock.Now()

		if err := s.database.SaveTemplate(learned); err != nil {
			return fmt.Errorf("saving learned template: %w", err)
		}
	}

	s.logger.Debug("templates learned from answer", "owner", ownerID, "dates", len(candidateDates))
	return nil
}
