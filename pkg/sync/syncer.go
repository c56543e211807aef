package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/calsweep/calsweep/internal/utils"
	cal "github.com/calsweep/calsweep/pkg/calendar"
	"github.com/calsweep/calsweep/pkg/feed"
	"github.com/calsweep/calsweep/pkg/google"
	"github.com/calsweep/calsweep/pkg/user"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("source or target calendar is not configured")

// SourceKind is resolved once per run from the configured source id and
// carried through the pipeline.
type SourceKind int

const (
	SourceCalendar SourceKind = iota
	SourceFeed
)

func ResolveSourceKind(sourceId string) SourceKind {
	if strings.HasPrefix(sourceId, "http://") || strings.HasPrefix(sourceId, "https://") {
		return SourceFeed
	}
	return SourceCalendar
}

// EventStore is the destination-side (and calendar-source-side) contract the
// orchestrator drives: paginated listing plus two batched write primitives.
type EventStore interface {
	ListEvents(ctx context.Context, window cal.TimeWindow) ([]cal.StoredEvent, error)
	BatchInsert(ctx context.Context, events []cal.Event) ([]string, error)
	BatchDelete(ctx context.Context, eventIds []string) (int, error)
}

// EventStoreProvider resolves a calendar id to an EventStore using the
// current user's credentials.
type EventStoreProvider interface {
	GetStore(ctx context.Context, calendarId string) (EventStore, error)
}

type Result struct {
	Created  int
	Deleted  int
	Excluded int
}

type Options struct {
	WindowDays        int
	DefaultTimezone   string
	SkipOnEmptySource bool
}

// Syncer drives one end-to-end synchronization pass:
// fetch → filter → diff → apply → persist.
type Syncer struct {
	stores  EventStoreProvider
	fetcher *feed.Fetcher
	cache   *CacheRepo
	clock   utils.Clock
	opts    Options
}

func NewSyncer(stores EventStoreProvider, fetcher *feed.Fetcher, cache *CacheRepo, clock utils.Clock, opts Options) *Syncer {
	if opts.WindowDays <= 0 {
		opts.WindowDays = 180
	}
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "Europe/Berlin"
	}
	return &Syncer{
		stores:  stores,
		fetcher: fetcher,
		cache:   cache,
		clock:   clock,
		opts:    opts,
	}
}

// Run executes one full sync pass for the user. Updated events are applied
// as delete-then-recreate, so destination event ids are not stable across
// content edits. Fetch failures are mapped to an empty source set (which can
// only ever produce deletions) unless SkipOnEmptySource is configured, in
// which case the run is skipped.
func (s *Syncer) Run(ctx context.Context, userId string, settings user.Settings, logger SyncLogger) (Result, error) {
	runId := uuid.NewString()[:8]
	logger.User("Synchronization started...")
	logger.Technical("sync %s started: source=%s target=%s", runId, settings.SourceId, settings.TargetId)

	if settings.SourceId == "" || settings.TargetId == "" {
		logger.User("Error: source or target calendar is not configured.")
		return Result{}, ErrNotConfigured
	}

	now := s.clock.Now().UTC()
	window := cal.TimeWindow{
		From: now.AddDate(0, 0, -s.opts.WindowDays),
		To:   now.AddDate(0, 0, s.opts.WindowDays),
	}
	logger.Technical("sync %s window: %s to %s", runId, window.From.Format("2006-01-02"), window.To.Format("2006-01-02"))

	sourceEvents, err := s.fetchSource(ctx, userId, settings, window, logger)
	if err != nil {
		if errors.Is(err, google.ErrUnauthenticated) {
			logger.User("Error: Google Calendar is not connected.")
			return Result{}, err
		}
		// The policy decision lives here, not inside the fetch: a failed
		// fetch either skips the run or proceeds with zero source events.
		if s.opts.SkipOnEmptySource {
			logger.Technical("sync %s: source fetch failed, skipping run: %v", runId, err)
			logger.User("Source calendar unreachable - sync skipped.")
			return Result{}, nil
		}
		logger.Technical("sync %s: source fetch failed, proceeding with empty source set: %v", runId, err)
		logger.User("Source calendar unreachable - previously synced events may be removed.")
		sourceEvents = nil
	}
	logger.Technical("sync %s: %d source events", runId, len(sourceEvents))

	eligible, excluded := Filter(sourceEvents, settings.FilterPatterns, logger)

	created, deleted, err := s.applyDelta(ctx, userId, settings, window, eligible, now, logger)
	if err != nil {
		logger.User("Sync failed: " + userFacingReason(err))
		logger.Technical("sync %s failed: %v", runId, err)
		return Result{Created: created, Deleted: deleted, Excluded: excluded}, err
	}

	logger.User(fmt.Sprintf("Sync finished: %d created, %d deleted, %d excluded.", created, deleted, excluded))
	logger.Technical("sync %s finished: created=%d deleted=%d excluded=%d", runId, created, deleted, excluded)
	return Result{Created: created, Deleted: deleted, Excluded: excluded}, nil
}

func (s *Syncer) fetchSource(ctx context.Context, userId string, settings user.Settings, window cal.TimeWindow, logger SyncLogger) ([]cal.Event, error) {
	switch ResolveSourceKind(settings.SourceId) {
	case SourceFeed:
		return s.fetchFeedEvents(ctx, userId, settings, window, logger)
	default:
		return s.fetchCalendarEvents(ctx, settings.SourceId, window)
	}
}

func (s *Syncer) fetchFeedEvents(ctx context.Context, userId string, settings user.Settings, window cal.TimeWindow, logger SyncLogger) ([]cal.Event, error) {
	body, fromCache, err := s.fetcher.Fetch(ctx, userId, settings.SourceId)
	if err != nil {
		return nil, fmt.Errorf("feed fetch: %w", err)
	}
	if fromCache {
		logger.Technical("feed unchanged, parsed from cache")
	}

	parsed, err := feed.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("feed parse: %w", err)
	}

	timezone := settings.SourceTimezone
	if timezone == "" {
		timezone = s.opts.DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Technical("unknown timezone %q, falling back to %s", timezone, s.opts.DefaultTimezone)
		loc, err = time.LoadLocation(s.opts.DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone: %w", err)
		}
	}

	reconciled, skipped := feed.Reconcile(parsed, loc)
	if skipped > 0 {
		logger.User(fmt.Sprintf("%d events skipped due to errors.", skipped))
	}

	occurrences := feed.Expand(reconciled, window.From, window.To)
	events := make([]cal.Event, 0, len(occurrences))
	for _, occ := range occurrences {
		events = append(events, cal.FromFeedOccurrence(occ))
	}
	return events, nil
}

func (s *Syncer) fetchCalendarEvents(ctx context.Context, calendarId string, window cal.TimeWindow) ([]cal.Event, error) {
	store, err := s.stores.GetStore(ctx, calendarId)
	if err != nil {
		return nil, err
	}
	stored, err := store.ListEvents(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("source calendar fetch: %w", err)
	}
	events := make([]cal.Event, 0, len(stored))
	for _, se := range stored {
		events = append(events, se.Event)
	}
	return events, nil
}

// applyDelta diffs the eligible events against the persisted cache, applies
// the result to the destination and persists the new cache state.
func (s *Syncer) applyDelta(ctx context.Context, userId string, settings user.Settings, window cal.TimeWindow, events []cal.Event, now time.Time, logger SyncLogger) (int, int, error) {
	target, err := s.stores.GetStore(ctx, settings.TargetId)
	if err != nil {
		return 0, 0, err
	}

	cached := s.cache.Load(userId, settings.TargetId, settings.SourceId)

	// Cold-start protection: an empty cache means we know nothing about the
	// destination, and blindly creating would duplicate whatever is already
	// there. Rebuild the cache from a destination scan first.
	rebuilt := false
	if len(cached.Hashes) == 0 && len(cached.EventIds) == 0 {
		logger.Technical("cache empty - rebuilding from destination calendar")
		existing, err := target.ListEvents(ctx, window)
		if err != nil {
			logger.Technical("destination scan failed, continuing with empty cache: %v", err)
		} else {
			for _, se := range existing {
				if se.Id == "" {
					continue
				}
				key := EventKey(se.Event)
				cached.Hashes[key] = EventHash(se.Event)
				cached.EventIds[key] = se.Id
			}
			logger.Technical("cache rebuilt with %d destination events", len(cached.EventIds))
			rebuilt = true
		}
	}

	currentHashes := make(map[string]string, len(events))
	currentEvents := make(map[string]cal.Event, len(events))
	for _, e := range events {
		key := EventKey(e)
		currentHashes[key] = EventHash(e)
		currentEvents[key] = e
	}

	diff := ComputeDiff(currentHashes, cached.Hashes)
	logger.Technical("delta: %d new, %d changed, %d to delete, %d unchanged",
		len(diff.ToAdd), len(diff.ToUpdate), len(diff.ToDelete), len(diff.Unchanged))

	// Steady-state fast path: nothing changed, nothing is written. A freshly
	// rebuilt cache is still persisted so the next run skips the rescan.
	if diff.Empty() {
		if rebuilt {
			s.persistCache(userId, settings, cached, diff, currentHashes, nil, nil, now, logger)
		}
		logger.User("No changes detected.")
		return 0, 0, nil
	}

	// Changed events are replaced, not updated in place.
	var deleteIds []string
	for _, key := range append(append([]string{}, diff.ToDelete...), diff.ToUpdate...) {
		if id, ok := cached.EventIds[key]; ok && id != "" {
			deleteIds = append(deleteIds, id)
		}
	}

	deleted := 0
	if len(deleteIds) > 0 {
		logger.Technical("removing %d destination events", len(deleteIds))
		deleted, err = target.BatchDelete(ctx, deleteIds)
		if err != nil {
			return 0, deleted, fmt.Errorf("batch delete: %w", err)
		}
	}

	createKeys := append(append([]string{}, diff.ToAdd...), diff.ToUpdate...)
	sort.Strings(createKeys)
	created := 0
	createdIds := make([]string, len(createKeys))
	if len(createKeys) > 0 {
		toCreate := make([]cal.Event, 0, len(createKeys))
		for _, key := range createKeys {
			toCreate = append(toCreate, currentEvents[key])
		}
		logger.Technical("creating %d destination events", len(toCreate))
		createdIds, err = target.BatchInsert(ctx, toCreate)
		if err != nil {
			// Persist what did happen before propagating, so the next run
			// diffs against reality instead of duplicating creates.
			s.persistCache(userId, settings, cached, diff, currentHashes, createKeys, createdIds, now, logger)
			return countNonEmpty(createdIds), deleted, fmt.Errorf("batch insert: %w", err)
		}
		created = countNonEmpty(createdIds)
	}

	s.persistCache(userId, settings, cached, diff, currentHashes, createKeys, createdIds, now, logger)
	return created, deleted, nil
}

// persistCache rebuilds the cache record from the post-apply state and
// writes it as one unit. Keys whose create failed are left out entirely, so
// they reappear as new on the next run - that is the recovery path for
// partial failures.
func (s *Syncer) persistCache(userId string, settings user.Settings, cached CacheRecord, diff Diff, currentHashes map[string]string, createKeys []string, createdIds []string, now time.Time, logger SyncLogger) {
	failed := map[string]bool{}
	for i, key := range createKeys {
		if i < len(createdIds) && createdIds[i] != "" {
			cached.EventIds[key] = createdIds[i]
		} else {
			failed[key] = true
			delete(cached.EventIds, key)
		}
	}
	for _, key := range diff.ToDelete {
		delete(cached.EventIds, key)
	}

	hashes := make(map[string]string, len(currentHashes))
	for key, hash := range currentHashes {
		if failed[key] {
			continue
		}
		hashes[key] = hash
	}

	record := CacheRecord{
		Hashes:   hashes,
		EventIds: cached.EventIds,
		TargetId: settings.TargetId,
		SourceId: settings.SourceId,
		LastSync: now,
	}
	if err := s.cache.Save(userId, record); err != nil {
		logger.Technical("failed to persist sync cache: %v", err)
	}
}

// ClearCaches drops both the delta cache and the feed cache for a user, so
// the next run starts from a destination rescan and a fresh feed download.
func (s *Syncer) ClearCaches(userId string) error {
	if err := s.cache.Clear(userId); err != nil {
		return fmt.Errorf("failed to clear sync cache: %w", err)
	}
	if err := s.fetcher.ClearCache(userId); err != nil {
		return fmt.Errorf("failed to clear feed cache: %w", err)
	}
	return nil
}

func countNonEmpty(ids []string) int {
	n := 0
	for _, id := range ids {
		if id != "" {
			n++
		}
	}
	return n
}

func userFacingReason(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "source or target calendar is not configured."
	case errors.Is(err, google.ErrUnauthenticated):
		return "Google Calendar is not connected."
	default:
		return "the calendar service rejected the request."
	}
}
