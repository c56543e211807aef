package calendar

import "time"

// PlaceholderSummary is used when a source event has no title.
const PlaceholderSummary = "(untitled)"

// EventTime is either an all-day date (YYYY-MM-DD) or a timed instant
// (RFC 3339 with UTC offset). Exactly one field is set.
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
}

func (t EventTime) IsAllDay() bool {
	return t.Date != ""
}

// Value returns whichever representation is set.
func (t EventTime) Value() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// Event is the canonical, source-independent event shape every pipeline
// stage works with. Start and End are always both present and of the same
// kind (both all-day or both timed).
type Event struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
	// UID is the stable source identifier when one is known: the feed UID,
	// or the recurring-instance id of a destination calendar event.
	UID string `json:"uid,omitempty"`
}

// StoredEvent is an event as it exists in the destination calendar,
// carrying the provider-assigned id.
type StoredEvent struct {
	Event
	Id string
}

// TimeWindow bounds which events a sync run considers.
type TimeWindow struct {
	From time.Time
	To   time.Time
}
