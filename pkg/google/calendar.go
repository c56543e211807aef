package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	cal "github.com/calsweep/calsweep/pkg/calendar"
	log "github.com/sirupsen/logrus"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

var ErrUnauthenticated = fmt.Errorf("user is unauthenticated, authentication is required")

// listPageSize is the documented Events.List maximum.
const listPageSize = 250

type CalendarOptions struct {
	// BatchSize is the partition size for insert/delete calls. A partition
	// is the unit of retry, backoff and rate-limit pauses.
	BatchSize   int
	MaxAttempts int
	// BatchPause is inserted between successive partitions.
	BatchPause time.Duration
	// Backoff returns how long to wait before the next retry of a partition.
	Backoff func(attempt int) time.Duration
}

// Calendar gives the sync engine paginated read and partitioned write access
// to one Google calendar.
type Calendar struct {
	service    *gcal.Service
	calendarId string
	opts       CalendarOptions
}

func newCalendar(service *gcal.Service, calendarId string, opts CalendarOptions) *Calendar {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BatchPause == 0 {
		opts.BatchPause = 500 * time.Millisecond
	}
	if opts.Backoff == nil {
		opts.Backoff = func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		}
	}
	return &Calendar{
		service:    service,
		calendarId: calendarId,
		opts:       opts,
	}
}

// ListEvents returns all events in the window, following pagination until no
// continuation token remains. Recurring events are expanded to instances.
func (c *Calendar) ListEvents(ctx context.Context, window cal.TimeWindow) ([]cal.StoredEvent, error) {
	var events []cal.StoredEvent
	pageToken := ""
	pages := 0

	for {
		call := c.service.Events.List(c.calendarId).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(listPageSize).
			Context(ctx)
		if !window.From.IsZero() {
			call = call.TimeMin(window.From.Format(time.RFC3339))
		}
		if !window.To.IsZero() {
			call = call.TimeMax(window.To.Format(time.RFC3339))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		result, err := call.Do()
		if err != nil {
			err := fmt.Errorf("unable to retrieve events from Google Calendar: %v", err)
			log.Error(err)
			return nil, err
		}
		pages++

		for _, item := range result.Items {
			events = append(events, cal.StoredEvent{
				Event: cal.FromGoogleEvent(item),
				Id:    item.Id,
			})
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}

	log.Debugf("retrieved %d events from calendar %s over %d pages", len(events), c.calendarId, pages)
	return events, nil
}

// BatchInsert creates the given events, returning one destination id per
// input event in input order; an empty string marks a failed create. Only
// adapter-fatal conditions (credential rejection) are returned as an error,
// together with whatever partial result was collected.
func (c *Calendar) BatchInsert(ctx context.Context, events []cal.Event) ([]string, error) {
	ids := make([]string, len(events))

	for start := 0; start < len(events); start += c.opts.BatchSize {
		end := min(start+c.opts.BatchSize, len(events))
		if start > 0 {
			time.Sleep(c.opts.BatchPause)
		}
		if err := c.insertPartition(ctx, events[start:end], ids[start:end]); err != nil {
			return ids, err
		}
	}
	return ids, nil
}

func (c *Calendar) insertPartition(ctx context.Context, events []cal.Event, ids []string) error {
	failed := make([]bool, len(events))

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		retry := false
		for i, e := range events {
			if ids[i] != "" || failed[i] {
				continue
			}
			result, err := c.service.Events.Insert(c.calendarId, toGoogleEvent(e)).Context(ctx).Do()
			if err == nil {
				ids[i] = result.Id
				continue
			}
			if isFatal(err) {
				return fmt.Errorf("insert rejected for calendar %s: %w", c.calendarId, err)
			}
			if isTransient(err) {
				retry = true
				log.Debugf("transient insert error (attempt %d): %v", attempt, err)
				continue
			}
			failed[i] = true
			log.Errorf("failed to insert event %q: %v", e.Summary, err)
		}
		if !retry {
			return nil
		}
		if attempt < c.opts.MaxAttempts {
			log.Infof("retrying insert partition, attempt %d/%d", attempt+1, c.opts.MaxAttempts)
			time.Sleep(c.opts.Backoff(attempt))
		} else {
			log.Errorf("insert partition exhausted %d attempts on calendar %s", c.opts.MaxAttempts, c.calendarId)
		}
	}
	return nil
}

// BatchDelete removes the given events and returns how many are confirmed
// gone. A 404/410 response counts as success: the goal state, "event
// absent", was already reached.
func (c *Calendar) BatchDelete(ctx context.Context, eventIds []string) (int, error) {
	deleted := 0

	for start := 0; start < len(eventIds); start += c.opts.BatchSize {
		end := min(start+c.opts.BatchSize, len(eventIds))
		if start > 0 {
			time.Sleep(c.opts.BatchPause)
		}
		n, err := c.deletePartition(ctx, eventIds[start:end])
		deleted += n
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func (c *Calendar) deletePartition(ctx context.Context, eventIds []string) (int, error) {
	done := make([]bool, len(eventIds))
	failed := make([]bool, len(eventIds))
	deleted := 0

	for attempt := 1; attempt <= c.opts.MaxAttempts; attempt++ {
		retry := false
		for i, id := range eventIds {
			if done[i] || failed[i] {
				continue
			}
			err := c.service.Events.Delete(c.calendarId, id).Context(ctx).Do()
			if err == nil || isGone(err) {
				done[i] = true
				deleted++
				continue
			}
			if isFatal(err) {
				return deleted, fmt.Errorf("delete rejected for calendar %s: %w", c.calendarId, err)
			}
			if isTransient(err) {
				retry = true
				log.Debugf("transient delete error (attempt %d): %v", attempt, err)
				continue
			}
			failed[i] = true
			log.Errorf("failed to delete event %s: %v", id, err)
		}
		if !retry {
			return deleted, nil
		}
		if attempt < c.opts.MaxAttempts {
			log.Infof("retrying delete partition, attempt %d/%d", attempt+1, c.opts.MaxAttempts)
			time.Sleep(c.opts.Backoff(attempt))
		} else {
			log.Errorf("delete partition exhausted %d attempts on calendar %s", c.opts.MaxAttempts, c.calendarId)
		}
	}
	return deleted, nil
}

func toGoogleEvent(e cal.Event) *gcal.Event {
	return &gcal.Event{
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start: &gcal.EventDateTime{
			Date:     e.Start.Date,
			DateTime: e.Start.DateTime,
		},
		End: &gcal.EventDateTime{
			Date:     e.End.Date,
			DateTime: e.End.DateTime,
		},
	}
}

func statusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// isTransient covers rate limiting and server-side failures; plain network
// errors (no googleapi status) are treated as transient too.
func isTransient(err error) bool {
	code := statusCode(err)
	if code == 0 {
		return true
	}
	return code == 403 || code == 429 || code >= 500
}

func isGone(err error) bool {
	code := statusCode(err)
	return code == 404 || code == 410
}

func isFatal(err error) bool {
	return statusCode(err) == 401
}
