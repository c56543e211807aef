package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrLocked is returned when another sync run holds the per-user lock.
// Callers treat it as "skip this run", not as a failure.
var ErrLocked = errors.New("sync already in progress for this user")

const lockPollInterval = 100 * time.Millisecond

// Locker provides per-user advisory locks guarding the delta cache and the
// destination calendar against concurrent sync runs for the same user.
type Locker struct {
	dir string
}

func NewLocker(dir string) (*Locker, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", dir, err)
	}
	return &Locker{dir: dir}, nil
}

// Acquire takes the lock for userId, polling until timeout. On success the
// returned release function must be called to drop the lock.
func (l *Locker) Acquire(userId string, timeout time.Duration) (func(), error) {
	if !ValidUserId(userId) {
		return nil, ErrInvalidUserId
	}
	path := filepath.Join(l.dir, userId+".lock")
	deadline := time.Now().Add(timeout)

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					log.Errorf("failed to release lock for user %s: %v", userId, err)
				}
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock for user %s: %w", userId, err)
		}
		if time.Now().After(deadline) {
			return nil, ErrLocked
		}
		time.Sleep(lockPollInterval)
	}
}
