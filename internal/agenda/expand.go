// Package agenda projects the persisted event list onto concrete points in
// time: range queries with recurrence expansion, next-occurrence lookup for
// the reminder scanner, and iCalendar export.
package agenda

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "agendapro/internal/log"
	"agendapro/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// Location is the timezone occurrences are evaluated and returned in.
	// If nil, time.Local is used.
	Location *time.Location

	// RangeStart / RangeEnd define the inclusive time window.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid extremely large
	// expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded occurrences and optionally information
// about truncation.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// TruncatedEvents records event IDs that hit the per-event cap.
	TruncatedEvents []string
}

// ExpandOccurrences expands events into concrete occurrences within the
// given time range, sorted by start time. Non-recurring events contribute at
// most one occurrence; events with an RRULE are expanded through the rule,
// anchored at their Date+Time instant. Events whose time field does not
// parse are skipped and logged, never fatal.
func ExpandOccurrences(events []model.Event, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	all := make([]model.Occurrence, 0, len(events))

	for _, evt := range events {
		start, err := evt.StartAt(cfg.Location)
		if err != nil {
			appLog.Error("expand: skipping event with unparsable time", err,
				"event_id", evt.ID, "time", evt.Time)
			continue
		}

		if evt.RRule == "" {
			if !start.Before(cfg.RangeStart) && !start.After(cfg.RangeEnd) {
				all = append(all, makeOccurrence(evt, start))
			}
			continue
		}

		times, err := occurrencesBetween(evt.RRule, start, cfg.RangeStart, cfg.RangeEnd)
		if err != nil {
			appLog.Error("expand: failed to parse RRULE", err, "event_id", evt.ID, "rrule", evt.RRule)
			continue
		}
		if len(times) > cfg.MaxOccurrencesPerEvent {
			times = times[:cfg.MaxOccurrencesPerEvent]
			result.TruncatedEvents = append(result.TruncatedEvents, evt.ID)
		}
		for _, t := range times {
			all = append(all, makeOccurrence(evt, t.In(cfg.Location)))
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Start.Before(all[j].Start)
	})

	result.Occurrences = all
	return result, nil
}

// NextStart returns the event's next start instant: for plain events simply
// the Date+Time instant; for recurring events the first rule occurrence
// strictly after now, or the anchor instant when the rule is exhausted.
func NextStart(evt model.Event, now time.Time, loc *time.Location) (time.Time, error) {
	start, err := evt.StartAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	if evt.RRule == "" {
		return start, nil
	}

	rule, err := rrule.StrToRRule(evt.RRule)
	if err != nil {
		return time.Time{}, err
	}
	rule.DTStart(start)

	next := rule.After(now, false)
	if next.IsZero() {
		// Rule exhausted; fall back to the anchor instant.
		return start, nil
	}
	return next.In(loc), nil
}

func occurrencesBetween(raw string, anchor, from, to time.Time) ([]time.Time, error) {
	rule, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, err
	}
	rule.DTStart(anchor)

	// Evaluate the range in the anchor's own location.
	return rule.Between(from.In(anchor.Location()), to.In(anchor.Location()), true), nil
}

func makeOccurrence(evt model.Event, start time.Time) model.Occurrence {
	return model.Occurrence{
		EventID: evt.ID,
		Title:   evt.Title,
		Status:  evt.Status,
		Start:   start,
	}
}
