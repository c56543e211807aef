package sync

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	cal "github.com/calsweep/calsweep/pkg/calendar"
)

// EventKey derives the identity string used to match an event across runs.
// When a stable source identifier is known it wins, so title or location
// edits do not change the key; the start is included to tell instances of a
// recurring event apart. Without a uid the key falls back to the event's
// position and title.
func EventKey(e cal.Event) string {
	if e.UID != "" {
		return "uid:" + e.UID + "|" + e.Start.Value()
	}
	return e.Start.Value() + "|" + e.End.Value() + "|" + e.Summary + "|" + e.Location
}

// EventHash digests the mutable event fields. Any change to summary,
// description, location, start or end changes the hash. The serialization is
// canonical JSON with lexicographically sorted keys, so the digest is stable
// across restarts and platforms.
func EventHash(e cal.Event) string {
	payload := map[string]any{
		"summary":     e.Summary,
		"description": e.Description,
		"location":    e.Location,
		"start":       eventTimeMap(e.Start),
		"end":         eventTimeMap(e.End),
	}
	// Map keys are sorted by encoding/json; marshaling string maps cannot fail.
	data, _ := json.Marshal(payload)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func eventTimeMap(t cal.EventTime) map[string]string {
	m := map[string]string{}
	if t.Date != "" {
		m["date"] = t.Date
	}
	if t.DateTime != "" {
		m["dateTime"] = t.DateTime
	}
	return m
}
