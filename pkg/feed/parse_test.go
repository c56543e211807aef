package feed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wrapICS(body string) []byte {
	return []byte("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//test//EN\r\n" +
		strings.ReplaceAll(body, "\n", "\r\n") + "END:VCALENDAR\r\n")
}

func TestParse(t *testing.T) {
	t.Run("rejects an empty body", func(t *testing.T) {
		_, err := Parse(nil)
		assert.Error(t, err)
	})

	t.Run("parses a timed event with all fields", func(t *testing.T) {
		events, err := Parse(wrapICS(
			"BEGIN:VEVENT\nUID:ev-1\nDTSTART:20261003T090000\nDTEND:20261003T103000\n" +
				"SUMMARY:Vorlesung\nDESCRIPTION:Analysis II\nLOCATION:H12\nEND:VEVENT\n"))

		require.NoError(t, err)
		require.Len(t, events, 1)
		ev := events[0]
		assert.Equal(t, "ev-1", ev.UID)
		assert.Equal(t, "Vorlesung", ev.Summary)
		assert.Equal(t, "Analysis II", ev.Description)
		assert.Equal(t, "H12", ev.Location)
		assert.False(t, ev.AllDay)
		assert.Equal(t, 9, ev.Start.Hour())
		assert.Equal(t, 30, ev.End.Minute())
	})

	t.Run("skips entries without a start", func(t *testing.T) {
		events, err := Parse(wrapICS(
			"BEGIN:VEVENT\nUID:broken\nSUMMARY:No start\nEND:VEVENT\n" +
				"BEGIN:VEVENT\nUID:ok\nDTSTART:20261003T090000\nDTEND:20261003T100000\nSUMMARY:Fine\nEND:VEVENT\n"))

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "ok", events[0].UID)
	})

	t.Run("skips timed entries without an end", func(t *testing.T) {
		events, err := Parse(wrapICS(
			"BEGIN:VEVENT\nUID:broken\nDTSTART:20261003T090000\nSUMMARY:No end\nEND:VEVENT\n"))

		require.NoError(t, err)
		assert.Empty(t, events)
	})

	t.Run("converts the exclusive all-day end to the inclusive last day", func(t *testing.T) {
		events, err := Parse(wrapICS(
			"BEGIN:VEVENT\nUID:h-1\nDTSTART;VALUE=DATE:20261003\nDTEND;VALUE=DATE:20261004\n" +
				"SUMMARY:Feiertag\nEND:VEVENT\n"))

		require.NoError(t, err)
		require.Len(t, events, 1)
		ev := events[0]
		assert.True(t, ev.AllDay)
		assert.Equal(t, "2026-10-03", ev.Start.Format("2006-01-02"))
		assert.Equal(t, "2026-10-03", ev.End.Format("2006-01-02"))
	})

	t.Run("all-day entry without an end is a single day", func(t *testing.T) {
		events, err := Parse(wrapICS(
			"BEGIN:VEVENT\nUID:h-2\nDTSTART;VALUE=DATE:20261224\nSUMMARY:Heiligabend\nEND:VEVENT\n"))

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, events[0].Start, events[0].End)
	})

	t.Run("captures the raw recurrence rule and exclusion dates", func(t *testing.T) {
		events, err := Parse(wrapICS(
			"BEGIN:VEVENT\nUID:r-1\nDTSTART:20261005T100000\nDTEND:20261005T110000\n" +
				"RRULE:FREQ=WEEKLY;COUNT=10\nEXDATE:20261012T100000,20261019T100000\n" +
				"SUMMARY:Seminar\nEND:VEVENT\n"))

		require.NoError(t, err)
		require.Len(t, events, 1)
		ev := events[0]
		assert.Equal(t, "FREQ=WEEKLY;COUNT=10", ev.RawRRule)
		require.Len(t, ev.ExDates, 2)
		assert.Equal(t, time.October, ev.ExDates[0].Month())
	})

	t.Run("stamps date-only exclusions on timed events with the start clock", func(t *testing.T) {
		events, err := Parse(wrapICS(
			"BEGIN:VEVENT\nUID:r-2\nDTSTART:20261005T100000\nDTEND:20261005T110000\n" +
				"RRULE:FREQ=WEEKLY;COUNT=4\nEXDATE;VALUE=DATE:20261012\n" +
				"SUMMARY:Seminar\nEND:VEVENT\n"))

		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Len(t, events[0].ExDates, 1)
		ex := events[0].ExDates[0]
		assert.Equal(t, 12, ex.Day())
		assert.Equal(t, 10, ex.Hour())
		assert.Equal(t, 0, ex.Minute())
	})
}
