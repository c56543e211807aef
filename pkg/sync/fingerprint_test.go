package sync

import (
	"testing"

	cal "github.com/calsweep/calsweep/pkg/calendar"
	"github.com/stretchr/testify/assert"
)

func timedEvent(summary string) cal.Event {
	return cal.Event{
		Summary:  summary,
		Location: "Room 12",
		Start:    cal.EventTime{DateTime: "2026-10-03T09:00:00+02:00"},
		End:      cal.EventTime{DateTime: "2026-10-03T10:30:00+02:00"},
	}
}

func TestEventKey(t *testing.T) {
	t.Run("uses uid and start when a uid is present", func(t *testing.T) {
		e := timedEvent("Lecture")
		e.UID = "abc-123"

		assert.Equal(t, "uid:abc-123|2026-10-03T09:00:00+02:00", EventKey(e))
	})

	t.Run("uid keyed events keep their key when the title changes", func(t *testing.T) {
		a := timedEvent("Lecture")
		a.UID = "abc-123"
		b := timedEvent("Lecture (moved)")
		b.UID = "abc-123"

		assert.Equal(t, EventKey(a), EventKey(b))
	})

	t.Run("falls back to position and title without a uid", func(t *testing.T) {
		e := timedEvent("Lecture")

		assert.Equal(t, "2026-10-03T09:00:00+02:00|2026-10-03T10:30:00+02:00|Lecture|Room 12", EventKey(e))
	})

	t.Run("all-day events use the date form", func(t *testing.T) {
		e := cal.Event{
			Summary: "Holiday",
			Start:   cal.EventTime{Date: "2026-10-03"},
			End:     cal.EventTime{Date: "2026-10-04"},
			UID:     "h-1",
		}

		assert.Equal(t, "uid:h-1|2026-10-03", EventKey(e))
	})
}

func TestEventHash(t *testing.T) {
	t.Run("is stable for identical events", func(t *testing.T) {
		assert.Equal(t, EventHash(timedEvent("Lecture")), EventHash(timedEvent("Lecture")))
	})

	t.Run("ignores the uid", func(t *testing.T) {
		a := timedEvent("Lecture")
		b := timedEvent("Lecture")
		b.UID = "abc-123"

		assert.Equal(t, EventHash(a), EventHash(b))
	})

	t.Run("changes when any content field changes", func(t *testing.T) {
		base := timedEvent("Lecture")

		changed := base
		changed.Summary = "Seminar"
		assert.NotEqual(t, EventHash(base), EventHash(changed))

		changed = base
		changed.Description = "bring laptops"
		assert.NotEqual(t, EventHash(base), EventHash(changed))

		changed = base
		changed.Location = "Room 13"
		assert.NotEqual(t, EventHash(base), EventHash(changed))

		changed = base
		changed.End = cal.EventTime{DateTime: "2026-10-03T11:00:00+02:00"}
		assert.NotEqual(t, EventHash(base), EventHash(changed))
	})

	t.Run("distinguishes all-day from timed at the same instant", func(t *testing.T) {
		allDay := cal.Event{
			Summary: "Lecture",
			Start:   cal.EventTime{Date: "2026-10-03"},
			End:     cal.EventTime{Date: "2026-10-04"},
		}
		timed := cal.Event{
			Summary: "Lecture",
			Start:   cal.EventTime{DateTime: "2026-10-03T00:00:00+02:00"},
			End:     cal.EventTime{DateTime: "2026-10-04T00:00:00+02:00"},
		}

		assert.NotEqual(t, EventHash(allDay), EventHash(timed))
	})
}
