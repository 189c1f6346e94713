package sched

import (
	"sort"
	"time"

	"schedsync/internal/model"
)

const minutesPerDay = 24 * 60

// Resolve infers an availability tri-state for the target interval from
// the owner's stored blocks and templates. Precedence, first match wins:
//
//  1. A block whose interval exactly equals target.
//  2. The most relevant block overlapping target: longest overlap
//     first, ties broken by latest update.
//  3. A template matching target's weekday and exact clock window;
//     manual beats learned for the same key.
//  4. Unknown.
//
// Concrete one-off evidence outranks weekly patterns, and templates
// only match their exact window so an unrelated overlapping window
// never produces a false suggestion.
func Resolve(target Interval, blocks []*model.ScheduleBlock, templates []*model.ScheduleTemplate) model.Availability {
	if exact := exactBlock(target, blocks); exact != nil {
		return model.FromBool(exact.Available)
	}
	if overlapping := bestOverlappingBlock(target, blocks); overlapping != nil {
		return model.FromBool(overlapping.Available)
	}
	if tmpl := matchingTemplate(target, templates); tmpl != nil {
		return model.FromBool(tmpl.Available)
	}
	return model.Unknown
}

// exactBlock returns the block whose interval equals target, preferring
// the most recently updated one when several exist.
func exactBlock(target Interval, blocks []*model.ScheduleBlock) *model.ScheduleBlock {
	var best *model.ScheduleBlock
	for _, b := range blocks {
		if !target.Equal(NewInterval(b.Start, b.End)) {
			continue
		}
		if best == nil || b.UpdatedAt.After(best.UpdatedAt) {
			best = b
		}
	}
	return best
}

// bestOverlappingBlock ranks blocks overlapping target by overlap
// duration, breaking ties by latest update.
func bestOverlappingBlock(target Interval, blocks []*model.ScheduleBlock) *model.ScheduleBlock {
	var candidates []*model.ScheduleBlock
	for _, b := range blocks {
		if target.Overlaps(NewInterval(b.Start, b.End)) {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		oi := target.OverlapDuration(NewInterval(candidates[i].Start, candidates[i].End))
		oj := target.OverlapDuration(NewInterval(candidates[j].Start, candidates[j].End))
		if oi != oj {
			return oi > oj
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})
	return candidates[0]
}

// matchingTemplate returns the template whose key (weekday, exact clock
// window) matches target, preferring manual over learned.
func matchingTemplate(target Interval, templates []*model.ScheduleTemplate) *model.ScheduleTemplate {
	weekday, startMinute, endMinute, ok := templateKey(target)
	if !ok {
		return nil
	}

	var learned *model.ScheduleTemplate
	for _, t := range templates {
		if t.Weekday != weekday || t.StartMinute != startMinute || t.EndMinute != endMinute {
			continue
		}
		if t.Source == model.SourceManual {
			return t
		}
		learned = t
	}
	return learned
}

// templateKey maps an interval onto the weekly-template key space:
// weekday plus minutes-since-midnight window. Intervals spanning more
// than one day have no key and never match a template. An interval
// ending exactly at the following midnight keys with EndMinute 1440.
func templateKey(target Interval) (weekday time.Weekday, startMinute, endMinute int, ok bool) {
	startMinute = target.Start.Hour()*60 + target.Start.Minute()
	endMinute = startMinute + int(target.End.Sub(target.Start)/time.Minute)
	if endMinute > minutesPerDay || startMinute >= endMinute {
		return 0, 0, 0, false
	}
	return target.Start.Weekday(), startMinute, endMinute, true
}
