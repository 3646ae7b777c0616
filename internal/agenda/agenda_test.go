package agenda

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendapro/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandSingleEvent(t *testing.T) {
	evt := model.Event{
		ID:     "e1",
		Title:  model.CategoryReuniao,
		Date:   day(2026, time.January, 10),
		Time:   "14:00",
		Status: model.StatusConfirmed,
	}

	result, err := ExpandOccurrences([]model.Event{evt}, ExpandConfig{
		Location:   time.UTC,
		RangeStart: day(2026, time.January, 8),
		RangeEnd:   day(2026, time.January, 12),
	})
	require.NoError(t, err)
	require.Len(t, result.Occurrences, 1)
	assert.Equal(t, "e1", result.Occurrences[0].EventID)
	assert.Equal(t, time.Date(2026, time.January, 10, 14, 0, 0, 0, time.UTC), result.Occurrences[0].Start)

	// Outside the window: no occurrence.
	result, err = ExpandOccurrences([]model.Event{evt}, ExpandConfig{
		Location:   time.UTC,
		RangeStart: day(2026, time.January, 11),
		RangeEnd:   day(2026, time.January, 20),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Occurrences)
}

func TestExpandRecurringEvent(t *testing.T) {
	evt := model.Event{
		ID:     "r1",
		Title:  model.CategoryAcademia,
		Date:   day(2026, time.January, 5), // a Monday
		Time:   "10:00",
		Status: model.StatusConfirmed,
		RRule:  "FREQ=WEEKLY;COUNT=10",
	}

	result, err := ExpandOccurrences([]model.Event{evt}, ExpandConfig{
		Location:   time.UTC,
		RangeStart: day(2026, time.January, 5),
		RangeEnd:   time.Date(2026, time.January, 19, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, result.Occurrences, 3)
	assert.Equal(t, time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC), result.Occurrences[0].Start)
	assert.Equal(t, time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC), result.Occurrences[1].Start)
	assert.Equal(t, time.Date(2026, time.January, 19, 10, 0, 0, 0, time.UTC), result.Occurrences[2].Start)
}

func TestExpandSortsAcrossEvents(t *testing.T) {
	a := model.Event{ID: "a", Title: "A", Date: day(2026, time.January, 10), Time: "18:00", Status: model.StatusConfirmed}
	b := model.Event{ID: "b", Title: "B", Date: day(2026, time.January, 10), Time: "09:00", Status: model.StatusConfirmed}

	result, err := ExpandOccurrences([]model.Event{a, b}, ExpandConfig{
		Location:   time.UTC,
		RangeStart: day(2026, time.January, 10),
		RangeEnd:   day(2026, time.January, 11),
	})
	require.NoError(t, err)
	require.Len(t, result.Occurrences, 2)
	assert.Equal(t, "b", result.Occurrences[0].EventID)
	assert.Equal(t, "a", result.Occurrences[1].EventID)
}

func TestExpandSkipsMalformedTime(t *testing.T) {
	evt := model.Event{ID: "bad", Title: "X", Date: day(2026, time.January, 10), Time: "??", Status: model.StatusConfirmed}

	result, err := ExpandOccurrences([]model.Event{evt}, ExpandConfig{
		Location:   time.UTC,
		RangeStart: day(2026, time.January, 8),
		RangeEnd:   day(2026, time.January, 12),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Occurrences)
}

func TestExpandInvertedRange(t *testing.T) {
	_, err := ExpandOccurrences(nil, ExpandConfig{
		Location:   time.UTC,
		RangeStart: day(2026, time.January, 12),
		RangeEnd:   day(2026, time.January, 8),
	})
	assert.Error(t, err)
}

func TestNextStart(t *testing.T) {
	plain := model.Event{ID: "p", Date: day(2026, time.January, 10), Time: "14:00", Status: model.StatusConfirmed}

	next, err := NextStart(plain, day(2026, time.January, 1), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 10, 14, 0, 0, 0, time.UTC), next)

	recurring := model.Event{ID: "r", Date: day(2026, time.January, 5), Time: "10:00", RRule: "FREQ=WEEKLY", Status: model.StatusConfirmed}

	next, err = NextStart(recurring, time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC), next)

	_, err = NextStart(model.Event{ID: "x", Date: day(2026, time.January, 5), Time: "zz"}, day(2026, time.January, 1), time.UTC)
	assert.Error(t, err)
}

func TestBuildCalendarExportsConfirmedOnly(t *testing.T) {
	confirmed := model.Event{
		ID:        "e1",
		Title:     model.CategoryReuniao,
		Date:      day(2026, time.January, 10),
		Time:      "14:00",
		Status:    model.StatusConfirmed,
		RRule:     "FREQ=WEEKLY",
		CreatedAt: day(2026, time.January, 1),
	}
	canceled := model.Event{
		ID:        "e2",
		Title:     "HIDDEN",
		Date:      day(2026, time.January, 11),
		Time:      "09:00",
		Status:    model.StatusCanceled,
		CreatedAt: day(2026, time.January, 1),
	}

	out := BuildCalendar([]model.Event{confirmed, canceled}, time.UTC)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:"+model.CategoryReuniao)
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY")
	assert.NotContains(t, out, "HIDDEN")
}
