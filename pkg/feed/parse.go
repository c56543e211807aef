package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	log "github.com/sirupsen/logrus"
)

// Parse reads a feed document into ParsedEvents. Individual malformed
// entries are skipped; only an unparseable document is an error.
func Parse(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	events := make([]ParsedEvent, 0, len(cal.Events()))
	skipped := 0
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			skipped++
			log.Debugf("skipping feed entry: %v", err)
			continue
		}
		events = append(events, ev)
	}
	if skipped > 0 {
		log.Infof("feed parse: skipped %d entries without usable start/end", skipped)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("entry has no start")
	}
	out.AllDay = isDateOnly(dtStart)

	var err error
	if out.AllDay {
		out.Start, err = ve.GetAllDayStartAt()
	} else {
		out.Start, err = ve.GetStartAt()
	}
	if err != nil {
		return out, fmt.Errorf("unreadable start: %w", err)
	}

	dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd)
	if out.AllDay {
		if dtEnd == nil || dtEnd.Value == "" {
			// Single-day event; End stays the inclusive last day.
			out.End = out.Start
		} else {
			end, err := ve.GetAllDayEndAt()
			if err != nil {
				return out, fmt.Errorf("unreadable end: %w", err)
			}
			// DTEND is exclusive on the wire; keep the inclusive last day so
			// downstream normalization owns the exclusive-end convention.
			out.End = end.AddDate(0, 0, -1)
		}
	} else {
		if dtEnd == nil || dtEnd.Value == "" {
			return out, errors.New("entry has no end")
		}
		end, err := ve.GetEndAt()
		if err != nil {
			return out, fmt.Errorf("unreadable end: %w", err)
		}
		out.End = end
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseFeedTime(part)
			if err != nil {
				continue
			}
			// A date-only exclusion on a timed event parses to midnight and
			// would never match an occurrence instant. Stamp it with the
			// event's start clock so it lines up with the occurrence the
			// recurrence produces on that day.
			if !out.AllDay && !strings.Contains(part, "T") {
				t = time.Date(t.Year(), t.Month(), t.Day(),
					out.Start.Hour(), out.Start.Minute(), out.Start.Second(), 0, t.Location())
			}
			out.ExDates = append(out.ExDates, t)
		}
	}

	return out, nil
}

func isDateOnly(p *ical.IANAProperty) bool {
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// parseFeedTime handles the basic DATE / DATE-TIME / UTC forms found in
// EXDATE values.
func parseFeedTime(v string) (time.Time, error) {
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}
