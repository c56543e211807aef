package feed

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Reconcile rewrites each timed event's wall-clock time into loc, discarding
// whatever offset or timezone the feed declared. Institutional feed
// generators routinely ship wrong or missing VTIMEZONEs; the user-declared
// timezone wins over embedded metadata. All-day events carry no offset and
// pass through untouched.
//
// Events whose reconciled start is not strictly before their end are
// dropped. Returns the surviving events and the number dropped.
func Reconcile(events []ParsedEvent, loc *time.Location) ([]ParsedEvent, int) {
	out := make([]ParsedEvent, 0, len(events))
	skipped := 0

	for _, ev := range events {
		if !ev.AllDay {
			ev.Start = rewall(ev.Start, loc)
			ev.End = rewall(ev.End, loc)
			exDates := make([]time.Time, 0, len(ev.ExDates))
			for _, ex := range ev.ExDates {
				exDates = append(exDates, rewall(ex, loc))
			}
			ev.ExDates = exDates

			if !ev.Start.Before(ev.End) {
				skipped++
				log.Infof("skipping event %q: start is not before end after timezone reconciliation", ev.Summary)
				continue
			}
		} else if ev.End.Before(ev.Start) {
			skipped++
			log.Infof("skipping all-day event %q: end date before start date", ev.Summary)
			continue
		}
		out = append(out, ev)
	}

	return out, skipped
}

// rewall builds a new instant from t's wall-clock components interpreted in
// loc. The input value is never modified.
func rewall(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}
