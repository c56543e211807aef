package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	t.Run("reinterprets wall-clock times in the configured timezone", func(t *testing.T) {
		// winter date, Berlin is UTC+1
		events := []ParsedEvent{{
			Summary: "Vorlesung",
			Start:   time.Date(2026, 1, 21, 9, 0, 0, 0, time.UTC),
			End:     time.Date(2026, 1, 21, 10, 30, 0, 0, time.UTC),
		}}

		out, skipped := Reconcile(events, berlin)

		require.Len(t, out, 1)
		assert.Equal(t, 0, skipped)
		assert.Equal(t, "2026-01-21T09:00:00+01:00", out[0].Start.Format(time.RFC3339))
		assert.Equal(t, "2026-01-21T10:30:00+01:00", out[0].End.Format(time.RFC3339))
	})

	t.Run("uses the summer offset for summer dates", func(t *testing.T) {
		events := []ParsedEvent{{
			Summary: "Vorlesung",
			Start:   time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC),
			End:     time.Date(2026, 6, 15, 10, 30, 0, 0, time.UTC),
		}}

		out, _ := Reconcile(events, berlin)

		require.Len(t, out, 1)
		assert.Equal(t, "2026-06-15T09:00:00+02:00", out[0].Start.Format(time.RFC3339))
	})

	t.Run("drops timed events whose start is not before their end", func(t *testing.T) {
		events := []ParsedEvent{{
			Summary: "Broken",
			Start:   time.Date(2026, 1, 21, 10, 0, 0, 0, time.UTC),
			End:     time.Date(2026, 1, 21, 10, 0, 0, 0, time.UTC),
		}}

		out, skipped := Reconcile(events, berlin)

		assert.Empty(t, out)
		assert.Equal(t, 1, skipped)
	})

	t.Run("rewrites exclusion dates alongside the event", func(t *testing.T) {
		events := []ParsedEvent{{
			Summary: "Seminar",
			Start:   time.Date(2026, 1, 21, 9, 0, 0, 0, time.UTC),
			End:     time.Date(2026, 1, 21, 10, 0, 0, 0, time.UTC),
			ExDates: []time.Time{time.Date(2026, 1, 28, 9, 0, 0, 0, time.UTC)},
		}}

		out, _ := Reconcile(events, berlin)

		require.Len(t, out, 1)
		require.Len(t, out[0].ExDates, 1)
		assert.Equal(t, "2026-01-28T09:00:00+01:00", out[0].ExDates[0].Format(time.RFC3339))
	})

	t.Run("all-day events pass through untouched", func(t *testing.T) {
		start := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)
		events := []ParsedEvent{{Summary: "Feiertag", Start: start, End: start, AllDay: true}}

		out, skipped := Reconcile(events, berlin)

		require.Len(t, out, 1)
		assert.Equal(t, 0, skipped)
		assert.Equal(t, start, out[0].Start)
	})

	t.Run("drops all-day events ending before they start", func(t *testing.T) {
		events := []ParsedEvent{{
			Summary: "Broken",
			Start:   time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
			End:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			AllDay:  true,
		}}

		out, skipped := Reconcile(events, berlin)

		assert.Empty(t, out)
		assert.Equal(t, 1, skipped)
	})
}
