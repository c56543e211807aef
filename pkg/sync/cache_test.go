package sync

import (
	"testing"

	"github.com/calsweep/calsweep/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCacheRepo(t *testing.T) *CacheRepo {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewCacheRepo(store)
}

func TestCacheRepo(t *testing.T) {
	t.Run("returns an empty record when nothing is stored", func(t *testing.T) {
		repo := newTestCacheRepo(t)

		rec := repo.Load("user-1", "target", "source")

		assert.Empty(t, rec.Hashes)
		assert.Empty(t, rec.EventIds)
		assert.Equal(t, "target", rec.TargetId)
		assert.Equal(t, "source", rec.SourceId)
	})

	t.Run("round-trips a saved record", func(t *testing.T) {
		repo := newTestCacheRepo(t)
		rec := newCacheRecord("target", "source")
		rec.Hashes["k1"] = "h1"
		rec.EventIds["k1"] = "evt-1"
		require.NoError(t, repo.Save("user-1", rec))

		loaded := repo.Load("user-1", "target", "source")

		assert.Equal(t, rec.Hashes, loaded.Hashes)
		assert.Equal(t, rec.EventIds, loaded.EventIds)
	})

	t.Run("resets when the target calendar changed", func(t *testing.T) {
		repo := newTestCacheRepo(t)
		rec := newCacheRecord("old-target", "source")
		rec.Hashes["k1"] = "h1"
		require.NoError(t, repo.Save("user-1", rec))

		loaded := repo.Load("user-1", "new-target", "source")

		assert.Empty(t, loaded.Hashes)
		assert.Equal(t, "new-target", loaded.TargetId)
	})

	t.Run("resets when the source changed", func(t *testing.T) {
		repo := newTestCacheRepo(t)
		rec := newCacheRecord("target", "https://example.com/old.ics")
		rec.Hashes["k1"] = "h1"
		require.NoError(t, repo.Save("user-1", rec))

		loaded := repo.Load("user-1", "target", "https://example.com/new.ics")

		assert.Empty(t, loaded.Hashes)
	})

	t.Run("clear removes the record", func(t *testing.T) {
		repo := newTestCacheRepo(t)
		rec := newCacheRecord("target", "source")
		rec.Hashes["k1"] = "h1"
		require.NoError(t, repo.Save("user-1", rec))

		require.NoError(t, repo.Clear("user-1"))

		assert.Empty(t, repo.Load("user-1", "target", "source").Hashes)
	})
}

func TestComputeDiff(t *testing.T) {
	t.Run("classifies added, changed, deleted and unchanged keys", func(t *testing.T) {
		current := map[string]string{"a": "h1", "b": "h2-new", "c": "h3"}
		cached := map[string]string{"b": "h2-old", "c": "h3", "d": "h4"}

		diff := ComputeDiff(current, cached)

		assert.Equal(t, []string{"a"}, diff.ToAdd)
		assert.Equal(t, []string{"b"}, diff.ToUpdate)
		assert.Equal(t, []string{"d"}, diff.ToDelete)
		assert.Equal(t, []string{"c"}, diff.Unchanged)
	})

	t.Run("identical sets produce an empty diff", func(t *testing.T) {
		current := map[string]string{"a": "h1", "b": "h2"}

		diff := ComputeDiff(current, map[string]string{"a": "h1", "b": "h2"})

		assert.True(t, diff.Empty())
		assert.Len(t, diff.Unchanged, 2)
	})

	t.Run("empty source marks everything for deletion", func(t *testing.T) {
		diff := ComputeDiff(map[string]string{}, map[string]string{"a": "h1", "b": "h2"})

		assert.False(t, diff.Empty())
		assert.Len(t, diff.ToDelete, 2)
		assert.Empty(t, diff.ToAdd)
	})
}
