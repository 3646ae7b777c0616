package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendapro/internal/model"
)

// eventAt builds a confirmed event starting at the given instant.
func eventAt(id string, start time.Time) model.Event {
	return model.Event{
		ID:     id,
		Title:  model.CategoryReuniao,
		Date:   time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location()),
		Time:   start.Format("15:04"),
		Status: model.StatusConfirmed,
	}
}

func TestScan24HourWindow(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	events := []model.Event{eventAt("e1", start)}

	now := start.Add(-23*time.Hour - 30*time.Minute)
	out := Scan(events, now, time.UTC)

	require.Len(t, out, 1)
	assert.Equal(t, "24h-e1", out[0].ID)
	assert.Equal(t, "e1", out[0].EventID)
	assert.Equal(t, UrgencyWarning, out[0].Urgency)
	assert.Contains(t, out[0].Message, "14:00")
}

func TestScanStartingSoonWindow(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	events := []model.Event{eventAt("e1", start)}

	now := start.Add(-30 * time.Minute)
	out := Scan(events, now, time.UTC)

	require.Len(t, out, 1)
	assert.Equal(t, "1h-e1", out[0].ID)
	assert.Equal(t, UrgencyUrgent, out[0].Urgency)
	assert.Contains(t, out[0].Message, "30 minutos")
}

func TestScanWindowBoundaries(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	events := []model.Event{eventAt("e1", start)}

	// Exactly 24h away: the 24h rule fires (23 < diff <= 24).
	out := Scan(events, start.Add(-24*time.Hour), time.UTC)
	require.Len(t, out, 1)
	assert.Equal(t, "24h-e1", out[0].ID)

	// Exactly 1h away: the starting-soon rule fires, minutes = 60.
	out = Scan(events, start.Add(-time.Hour), time.UTC)
	require.Len(t, out, 1)
	assert.Equal(t, "1h-e1", out[0].ID)
	assert.Contains(t, out[0].Message, "60 minutos")

	// Outside both windows.
	assert.Empty(t, Scan(events, start.Add(-25*time.Hour), time.UTC))
	assert.Empty(t, Scan(events, start.Add(-2*time.Hour), time.UTC))

	// Already started.
	assert.Empty(t, Scan(events, start.Add(time.Minute), time.UTC))
}

func TestScanSkipsUnconfirmedEvents(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	now := start.Add(-30 * time.Minute)

	for _, status := range []model.Status{model.StatusPending, model.StatusCanceled, model.StatusRescheduled} {
		evt := eventAt("e1", start)
		evt.Status = status
		assert.Empty(t, Scan([]model.Event{evt}, now, time.UTC), "status %s", status)
	}
}

func TestScanSkipsMalformedTime(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	broken := eventAt("bad", start)
	broken.Time = "soonish"
	ok := eventAt("ok", start)

	out := Scan([]model.Event{broken, ok}, start.Add(-30*time.Minute), time.UTC)

	require.Len(t, out, 1)
	assert.Equal(t, "1h-ok", out[0].ID)
}

func TestScanRecurringEventNextOccurrence(t *testing.T) {
	// Weekly event anchored months ago; the upcoming occurrence drives the
	// reminder windows.
	anchor := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	evt := eventAt("r1", anchor)
	evt.RRule = "FREQ=WEEKLY"

	// Next occurrence after now falls on Monday 2026-03-16 10:00.
	now := time.Date(2026, time.March, 16, 9, 30, 0, 0, time.UTC)
	out := Scan([]model.Event{evt}, now, time.UTC)

	require.Len(t, out, 1)
	assert.Equal(t, "1h-r1", out[0].ID)
}

func TestStoreMergeDeduplicates(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	events := []model.Event{eventAt("e1", start)}
	now := start.Add(-30 * time.Minute)

	st := NewStore()
	assert.Equal(t, 1, st.Merge(Scan(events, now, time.UTC)))

	// Second pass with unchanged input adds nothing.
	assert.Equal(t, 0, st.Merge(Scan(events, now.Add(30*time.Second), time.UTC)))
	assert.Len(t, st.List(), 1)
}

func TestStoreDismissalIsStickyWhileWindowMatches(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	events := []model.Event{eventAt("e1", start)}
	now := start.Add(-30 * time.Minute)

	st := NewStore()
	st.Merge(Scan(events, now, time.UTC))

	require.True(t, st.Dismiss("1h-e1"))
	assert.Empty(t, st.List())
	assert.False(t, st.Dismiss("1h-e1"))

	// Same window still matching: the dismissed alert must not resurrect.
	st.Merge(Scan(events, now.Add(30*time.Second), time.UTC))
	assert.Empty(t, st.List())

	// Window no longer matches: dismissal expires...
	st.Merge(Scan(events, start.Add(time.Hour), time.UTC))
	assert.Empty(t, st.List())

	// ...so a genuinely fresh match fires again.
	st.Merge(Scan(events, now, time.UTC))
	require.Len(t, st.List(), 1)
	assert.Equal(t, "1h-e1", st.List()[0].ID)
}

func TestStoreDismissRemovesExactlyOne(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	other := time.Date(2026, time.August, 30, 14, 15, 0, 0, time.UTC)
	events := []model.Event{eventAt("e1", start), eventAt("e2", other)}

	st := NewStore()
	st.Merge(Scan(events, start.Add(-30*time.Minute), time.UTC))
	require.Len(t, st.List(), 2)

	require.True(t, st.Dismiss("1h-e1"))
	held := st.List()
	require.Len(t, held, 1)
	assert.Equal(t, "1h-e2", held[0].ID)
}

// stubSource is a fixed in-memory event source.
type stubSource struct {
	events []model.Event
}

func (s *stubSource) List() ([]model.Event, error) {
	return s.events, nil
}

func TestScannerRunOnce(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	src := &stubSource{events: []model.Event{eventAt("e1", start)}}

	st := NewStore()
	now := start.Add(-23*time.Hour - 30*time.Minute)
	sc := NewScanner(st, src, time.UTC, WithClock(func() time.Time { return now }))

	sc.RunOnce()
	sc.RunOnce()

	held := st.List()
	require.Len(t, held, 1)
	assert.Equal(t, "24h-e1", held[0].ID)
}

func TestScannerStartStop(t *testing.T) {
	start := time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC)
	src := &stubSource{events: []model.Event{eventAt("e1", start)}}

	st := NewStore()
	now := start.Add(-30 * time.Minute)
	sc := NewScanner(st, src, time.UTC, WithClock(func() time.Time { return now }))

	// Start performs an immediate pass before the first tick.
	require.NoError(t, sc.Start("@every 1h"))
	assert.Error(t, sc.Start("@every 1h"))
	assert.Len(t, st.List(), 1)

	sc.Stop()
	sc.Stop() // idempotent
}
