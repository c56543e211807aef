package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blob struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	t.Run("Get on missing blob returns not found", func(t *testing.T) {
		var v blob
		found, err := store.Get("user-1", "events", &v)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put then Get round-trips", func(t *testing.T) {
		err := store.Put("user-1", "events", blob{Name: "a", Count: 3})
		require.NoError(t, err)

		var v blob
		found, err := store.Get("user-1", "events", &v)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, blob{Name: "a", Count: 3}, v)
	})

	t.Run("Put overwrites as one unit", func(t *testing.T) {
		require.NoError(t, store.Put("user-1", "events", blob{Name: "b", Count: 1}))

		var v blob
		found, err := store.Get("user-1", "events", &v)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "b", v.Name)
	})

	t.Run("Delete removes the blob and is idempotent", func(t *testing.T) {
		require.NoError(t, store.Put("user-2", "feed", blob{}))
		assert.NoError(t, store.Delete("user-2", "feed"))
		assert.NoError(t, store.Delete("user-2", "feed"))

		var v blob
		found, _ := store.Get("user-2", "feed", &v)
		assert.False(t, found)
	})

	t.Run("rejects user ids that would escape the storage directory", func(t *testing.T) {
		for _, id := range []string{"", ".", "..", "../escaped", "a/b", `a\b`} {
			var v blob
			_, err := store.Get(id, "events", &v)
			assert.ErrorIs(t, err, ErrInvalidUserId, "Get with id %q", id)
			assert.ErrorIs(t, store.Put(id, "events", blob{}), ErrInvalidUserId, "Put with id %q", id)
			assert.ErrorIs(t, store.Delete(id, "events"), ErrInvalidUserId, "Delete with id %q", id)
		}
	})

	t.Run("ListUsers returns distinct user ids", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, store.Put("alice", "events", blob{}))
		require.NoError(t, store.Put("alice", "feed", blob{}))
		require.NoError(t, store.Put("bob", "profile", blob{}))

		users, err := store.ListUsers()
		assert.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, users)
	})
}

func TestLocker(t *testing.T) {
	locker, err := NewLocker(t.TempDir())
	require.NoError(t, err)

	t.Run("Acquire and release", func(t *testing.T) {
		release, err := locker.Acquire("user-1", time.Second)
		require.NoError(t, err)
		release()

		release, err = locker.Acquire("user-1", time.Second)
		assert.NoError(t, err)
		release()
	})

	t.Run("Contended lock returns ErrLocked after timeout", func(t *testing.T) {
		release, err := locker.Acquire("user-2", time.Second)
		require.NoError(t, err)
		defer release()

		_, err = locker.Acquire("user-2", 300*time.Millisecond)
		assert.ErrorIs(t, err, ErrLocked)
	})

	t.Run("rejects user ids that would escape the lock directory", func(t *testing.T) {
		_, err := locker.Acquire("../escaped", time.Second)
		assert.ErrorIs(t, err, ErrInvalidUserId)
	})

	t.Run("Locks are per user", func(t *testing.T) {
		release, err := locker.Acquire("user-3", time.Second)
		require.NoError(t, err)
		defer release()

		other, err := locker.Acquire("user-4", time.Second)
		assert.NoError(t, err)
		other()
	})
}
