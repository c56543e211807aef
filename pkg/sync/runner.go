package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calsweep/calsweep/internal/storage"
	"github.com/calsweep/calsweep/pkg/user"
	log "github.com/sirupsen/logrus"
)

const lockTimeout = 2 * time.Second

// Runner executes sync passes across users, serializing per-user runs with a
// lock so a manual trigger cannot race a scheduled one.
type Runner struct {
	store       storage.Store
	users       user.Service
	syncer      *Syncer
	locker      *storage.Locker
	loggerForId func(userId string) SyncLogger
}

func NewRunner(store storage.Store, users user.Service, syncer *Syncer, locker *storage.Locker, loggerForId func(userId string) SyncLogger) *Runner {
	return &Runner{
		store:       store,
		users:       users,
		syncer:      syncer,
		locker:      locker,
		loggerForId: loggerForId,
	}
}

// SyncUser runs one sync pass for a single user. Returns storage.ErrLocked
// when a run for this user is already in flight.
func (r *Runner) SyncUser(ctx context.Context, userId string) (Result, error) {
	release, err := r.locker.Acquire(userId, lockTimeout)
	if err != nil {
		return Result{}, err
	}
	defer release()

	u, err := r.users.GetUser(ctx, userId)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load user %s: %w", userId, err)
	}
	return r.syncer.Run(ctx, userId, u.Settings, r.loggerForId(userId))
}

// SyncAllUsers runs a pass for every known user. One user's failure never
// stops the others; the first error is returned after all users ran.
func (r *Runner) SyncAllUsers(ctx context.Context) error {
	userIds, err := r.store.ListUsers()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	var firstErr error
	for _, userId := range userIds {
		if _, err := r.SyncUser(user.WithId(ctx, userId), userId); err != nil {
			if errors.Is(err, storage.ErrLocked) {
				log.Infof("sync for user %s already running, skipping", userId)
				continue
			}
			log.Errorf("sync failed for user %s: %v", userId, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
