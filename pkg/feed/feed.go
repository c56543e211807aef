package feed

import "time"

// ParsedEvent is a single VEVENT as read from a feed, before timezone
// reconciliation and recurrence expansion. For all-day events Start and End
// are dates and End is the last day (inclusive).
type ParsedEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time
}

// Occurrence is one concrete event instance after reconciliation and
// expansion, ready for normalization.
type Occurrence struct {
	UID         string
	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool
}
