package sync

import (
	"regexp"

	cal "github.com/calsweep/calsweep/pkg/calendar"
)

// Filter drops events whose summary matches any of the patterns. Patterns
// are case-insensitive regular expressions matched anywhere in the title.
// Invalid patterns are skipped individually; when every pattern is invalid
// no filtering happens at all, so a typo can never exclude everything.
func Filter(events []cal.Event, patterns []string, logger SyncLogger) ([]cal.Event, int) {
	if len(patterns) == 0 {
		return events, 0
	}

	var compiled []*regexp.Regexp
	invalid := 0
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			invalid++
			logger.Technical("invalid filter pattern %q: %v", pattern, err)
			continue
		}
		compiled = append(compiled, re)
	}

	if invalid > 0 && len(compiled) == 0 {
		logger.User("Invalid filter rules - all events are kept.")
	} else if invalid > 0 {
		logger.Technical("filter: ignored %d invalid patterns", invalid)
	}

	if len(compiled) == 0 {
		return events, 0
	}

	eligible := make([]cal.Event, 0, len(events))
	excluded := 0
	for _, event := range events {
		matched := false
		for _, re := range compiled {
			if re.MatchString(event.Summary) {
				matched = true
				break
			}
		}
		if matched {
			excluded++
			logger.Technical("filter: excluded %q", event.Summary)
		} else {
			eligible = append(eligible, event)
		}
	}

	logger.Technical("filter: %d excluded, %d remain", excluded, len(eligible))
	return eligible, excluded
}
