// Package alerts implements the reminder rules and the alert lifecycle:
// a pure rule-evaluation pass over the event list, a merge-by-id store with
// dismissal tracking, and a cron-driven scanner owning the polling loop.
package alerts

import (
	"fmt"
	"math"
	"time"

	"agendapro/internal/agenda"
	appLog "agendapro/internal/log"
	"agendapro/internal/model"
)

// Urgency classifies how pressing an alert is.
type Urgency string

const (
	UrgencyWarning Urgency = "WARNING"
	UrgencyUrgent  Urgency = "URGENT"
)

// Alert is a derived reminder, never persisted. IDs are deterministic
// ("24h-<eventID>", "1h-<eventID>") so that repeated scan passes merge
// instead of duplicating.
type Alert struct {
	ID      string  `json:"id"`
	EventID string  `json:"event_id"`
	Title   string  `json:"title"`
	Message string  `json:"message"`
	When    string  `json:"when"`
	Urgency Urgency `json:"urgency"`
}

// Scan evaluates the reminder rules against every confirmed event and
// returns the alerts whose time window currently matches.
//
// Rules, on diff = event start - now in fractional hours:
//
//	23 < diff <= 24  ->  24-hour reminder (WARNING)
//	 0 < diff <= 1   ->  starting soon    (URGENT)
//
// The event instant is always recomputed here from Date + Time; an
// unparsable time means no alert for that event, never an error.
func Scan(events []model.Event, now time.Time, loc *time.Location) []Alert {
	out := make([]Alert, 0)

	for _, evt := range events {
		if evt.Status != model.StatusConfirmed {
			continue
		}

		start, err := agenda.NextStart(evt, now, loc)
		if err != nil {
			appLog.Debug("alert scan: skipping event with unparsable time",
				"event_id", evt.ID, "time", evt.Time)
			continue
		}

		diff := start.Sub(now).Hours()

		if diff > 23 && diff <= 24 {
			out = append(out, Alert{
				ID:      "24h-" + evt.ID,
				EventID: evt.ID,
				Title:   "Lembrete de 24h",
				Message: fmt.Sprintf("O evento %q é amanhã às %s.", evt.Title, evt.Time),
				When:    "Amanhã",
				Urgency: UrgencyWarning,
			})
		}

		if diff > 0 && diff <= 1 {
			minutesLeft := int(math.Ceil(diff * 60))
			out = append(out, Alert{
				ID:      "1h-" + evt.ID,
				EventID: evt.ID,
				Title:   "Começa em Breve",
				Message: fmt.Sprintf("O evento %q começa em %d minutos.", evt.Title, minutesLeft),
				When:    "Agora",
				Urgency: UrgencyUrgent,
			})
		}
	}

	return out
}
