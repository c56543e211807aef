package calendar

import (
	"time"

	"github.com/calsweep/calsweep/pkg/feed"
	gcal "google.golang.org/api/calendar/v3"
)

const dateLayout = "2006-01-02"

// FromGoogleEvent maps a Google Calendar event onto the canonical shape.
// Missing summary becomes the placeholder; missing description/location stay
// empty. For instances of recurring events the recurring-event id is the
// stable identifier.
func FromGoogleEvent(item *gcal.Event) Event {
	e := Event{
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		UID:         item.RecurringEventId,
	}
	if e.Summary == "" {
		e.Summary = PlaceholderSummary
	}
	if item.Start != nil {
		e.Start = EventTime{Date: item.Start.Date, DateTime: item.Start.DateTime}
	}
	if item.End != nil {
		e.End = EventTime{Date: item.End.Date, DateTime: item.End.DateTime}
	}
	return e
}

// FromFeedOccurrence maps a reconciled feed occurrence onto the canonical
// shape. All-day occurrences carry an inclusive last day; the canonical form
// uses exclusive end dates, hence the one-day shift.
func FromFeedOccurrence(occ feed.Occurrence) Event {
	e := Event{
		Summary:     occ.Summary,
		Description: occ.Description,
		Location:    occ.Location,
		UID:         occ.UID,
	}
	if e.Summary == "" {
		e.Summary = PlaceholderSummary
	}
	if occ.AllDay {
		e.Start = EventTime{Date: occ.Start.Format(dateLayout)}
		e.End = EventTime{Date: occ.End.AddDate(0, 0, 1).Format(dateLayout)}
	} else {
		e.Start = EventTime{DateTime: occ.Start.Format(time.RFC3339)}
		e.End = EventTime{DateTime: occ.End.Format(time.RFC3339)}
	}
	return e
}
