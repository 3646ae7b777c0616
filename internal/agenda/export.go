package agenda

import (
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "agendapro/internal/log"
	"agendapro/internal/model"
)

// exportDuration is assumed for exported events; the data model tracks only
// start instants.
const exportDuration = time.Hour

// BuildCalendar serializes the confirmed events into a VCALENDAR payload
// suitable for subscription by external calendar clients. Events whose time
// field does not parse are skipped.
func BuildCalendar(events []model.Event, loc *time.Location) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//agendapro//agenda//PT")

	for _, evt := range events {
		if evt.Status != model.StatusConfirmed {
			continue
		}
		start, err := evt.StartAt(loc)
		if err != nil {
			appLog.Error("ics export: skipping event with unparsable time", err,
				"event_id", evt.ID, "time", evt.Time)
			continue
		}

		ve := cal.AddEvent(evt.ID)
		ve.SetSummary(evt.Title)
		ve.SetStartAt(start)
		ve.SetEndAt(start.Add(exportDuration))
		ve.SetDtStampTime(evt.CreatedAt.UTC())
		ve.SetCreatedTime(evt.CreatedAt.UTC())
		ve.SetStatus(ical.ObjectStatusConfirmed)
		if evt.RRule != "" {
			ve.AddRrule(evt.RRule)
		}
	}

	return cal.Serialize()
}
