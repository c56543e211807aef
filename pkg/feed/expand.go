package feed

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

// maxOccurrencesPerEvent caps recurrence expansion so a pathological RRULE
// cannot produce an unbounded event set.
const maxOccurrencesPerEvent = 5000

// Expand turns reconciled events into concrete occurrences inside the
// window. Non-recurring events pass through with overlap filtering; RRULE
// events are expanded with EXDATEs honored. Duplicate (UID, start) pairs are
// dropped, since feeds occasionally repeat entries.
func Expand(events []ParsedEvent, from, to time.Time) []Occurrence {
	var out []Occurrence
	seen := map[string]bool{}

	appendOccurrence := func(occ Occurrence) {
		key := occ.UID + "|" + occ.Start.Format(time.RFC3339)
		if occ.UID != "" && seen[key] {
			return
		}
		seen[key] = true
		out = append(out, occ)
	}

	for _, ev := range events {
		if ev.RawRRule == "" {
			if overlaps(ev.Start, ev.End, ev.AllDay, from, to) {
				appendOccurrence(toOccurrence(ev, ev.Start, ev.End))
			}
			continue
		}

		option, err := rrule.StrToROption(ev.RawRRule)
		if err != nil {
			log.Errorf("invalid RRULE %q on event %q, keeping base instance only: %v", ev.RawRRule, ev.Summary, err)
			if overlaps(ev.Start, ev.End, ev.AllDay, from, to) {
				appendOccurrence(toOccurrence(ev, ev.Start, ev.End))
			}
			continue
		}
		option.Dtstart = ev.Start
		rule, err := rrule.NewRRule(*option)
		if err != nil {
			log.Errorf("failed to build recurrence for event %q: %v", ev.Summary, err)
			continue
		}

		duration := ev.End.Sub(ev.Start)
		starts := rule.Between(from, to, true)
		if len(starts) > maxOccurrencesPerEvent {
			log.Errorf("recurrence for event %q truncated at %d occurrences", ev.Summary, maxOccurrencesPerEvent)
			starts = starts[:maxOccurrencesPerEvent]
		}

		for _, start := range starts {
			if isExcluded(start, ev.ExDates) {
				continue
			}
			appendOccurrence(toOccurrence(ev, start, start.Add(duration)))
		}
	}

	return out
}

func toOccurrence(ev ParsedEvent, start, end time.Time) Occurrence {
	return Occurrence{
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       start,
		End:         end,
		AllDay:      ev.AllDay,
	}
}

func overlaps(start, end time.Time, allDay bool, from, to time.Time) bool {
	if allDay {
		// End is the inclusive last day; the event covers it fully.
		end = end.AddDate(0, 0, 1)
	}
	return end.After(from) && start.Before(to)
}

func isExcluded(start time.Time, exDates []time.Time) bool {
	for _, ex := range exDates {
		if start.Equal(ex) {
			return true
		}
	}
	return false
}
