package sync

import (
	"fmt"
	"time"

	"github.com/calsweep/calsweep/internal/storage"
	log "github.com/sirupsen/logrus"
)

const cacheKind = "events"

// CacheRecord is the persisted memory of previous runs for one user's
// calendar pair: fingerprint key → content hash, and fingerprint key →
// destination event id. It is replaced wholesale on every sync that changed
// anything.
type CacheRecord struct {
	Hashes   map[string]string `json:"hashes"`
	EventIds map[string]string `json:"event_ids"`
	TargetId string            `json:"target_id"`
	SourceId string            `json:"source_id"`
	LastSync time.Time         `json:"last_sync"`
}

func newCacheRecord(targetId, sourceId string) CacheRecord {
	return CacheRecord{
		Hashes:   map[string]string{},
		EventIds: map[string]string{},
		TargetId: targetId,
		SourceId: sourceId,
	}
}

type CacheRepo struct {
	store storage.Store
}

func NewCacheRepo(store storage.Store) *CacheRepo {
	return &CacheRepo{store: store}
}

// Load returns the cached state for the given calendar pair. A cache built
// for a different target or source pair is discarded: a reconfiguration must
// never be diffed against the old pair's state. An unreadable cache is
// treated as absent.
func (r *CacheRepo) Load(userId string, targetId string, sourceId string) CacheRecord {
	var rec CacheRecord
	found, err := r.store.Get(userId, cacheKind, &rec)
	if err != nil {
		log.Errorf("failed to load sync cache for user %s, starting empty: %v", userId, err)
		return newCacheRecord(targetId, sourceId)
	}
	if !found {
		return newCacheRecord(targetId, sourceId)
	}

	if rec.TargetId != "" && rec.TargetId != targetId {
		log.Infof("target calendar changed (%s -> %s) - resetting sync cache", rec.TargetId, targetId)
		return newCacheRecord(targetId, sourceId)
	}
	if rec.SourceId != "" && sourceId != "" && rec.SourceId != sourceId {
		log.Info("source calendar changed - resetting sync cache")
		return newCacheRecord(targetId, sourceId)
	}

	if rec.Hashes == nil {
		rec.Hashes = map[string]string{}
	}
	if rec.EventIds == nil {
		rec.EventIds = map[string]string{}
	}
	rec.TargetId = targetId
	rec.SourceId = sourceId
	return rec
}

// Save persists the record as one unit.
func (r *CacheRepo) Save(userId string, rec CacheRecord) error {
	if err := r.store.Put(userId, cacheKind, rec); err != nil {
		return fmt.Errorf("failed to persist sync cache for user %s: %w", userId, err)
	}
	return nil
}

func (r *CacheRepo) Clear(userId string) error {
	return r.store.Delete(userId, cacheKind)
}

// Diff classifies the current source keys against the cached state.
type Diff struct {
	ToAdd     []string
	ToUpdate  []string
	ToDelete  []string
	Unchanged []string
}

func (d Diff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

// ComputeDiff compares the current key → hash set with the cached one.
// Updates are applied downstream as delete-then-recreate pairs, so the
// remote adapter only ever needs two primitives.
func ComputeDiff(current map[string]string, cached map[string]string) Diff {
	var d Diff
	for key, hash := range current {
		cachedHash, ok := cached[key]
		switch {
		case !ok:
			d.ToAdd = append(d.ToAdd, key)
		case cachedHash != hash:
			d.ToUpdate = append(d.ToUpdate, key)
		default:
			d.Unchanged = append(d.Unchanged, key)
		}
	}
	for key := range cached {
		if _, ok := current[key]; !ok {
			d.ToDelete = append(d.ToDelete, key)
		}
	}
	return d
}
