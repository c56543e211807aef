package app

import (
	"context"

	"github.com/calsweep/calsweep/internal/config"
	"github.com/calsweep/calsweep/internal/storage"
	"github.com/calsweep/calsweep/internal/utils"
	"github.com/calsweep/calsweep/pkg/feed"
	"github.com/calsweep/calsweep/pkg/google"
	"github.com/calsweep/calsweep/pkg/sync"
	"github.com/calsweep/calsweep/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	UserService user.Service
	UserHandler *user.Handler

	GoogleAuth    *google.Auth
	GoogleService google.Service
	GoogleHandler *google.Handler

	FeedFetcher *feed.Fetcher
	CacheRepo   *sync.CacheRepo
	Syncer      *sync.Syncer
	SyncRunner  *sync.Runner
	SyncHandler *sync.Handler

	Clock utils.Clock
}

// googleStoreProvider adapts the Google service to the syncer's store
// contract, resolving calendars with the current user's credentials.
type googleStoreProvider struct {
	service google.Service
}

func (p googleStoreProvider) GetStore(ctx context.Context, calendarId string) (sync.EventStore, error) {
	return p.service.GetCalendar(ctx, calendarId)
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(store storage.Store, locker *storage.Locker, cfg config.Application, logDir string) *Dependencies {
	deps := &Dependencies{}

	deps.UserService = user.NewUserService(user.NewUserRepo(store))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.GoogleAuth = google.NewAuth(store, deps.UserService, cfg)
	deps.GoogleService = google.NewService(deps.GoogleAuth, cfg.Sync)
	deps.GoogleHandler = google.NewHandler(deps.GoogleService)

	deps.Clock = &utils.SystemClock{}
	deps.FeedFetcher = feed.NewFetcher(store)
	deps.CacheRepo = sync.NewCacheRepo(store)
	deps.Syncer = sync.NewSyncer(
		googleStoreProvider{service: deps.GoogleService},
		deps.FeedFetcher,
		deps.CacheRepo,
		deps.Clock,
		sync.Options{
			WindowDays:        cfg.Sync.WindowDays,
			DefaultTimezone:   cfg.Sync.DefaultTimezone,
			SkipOnEmptySource: cfg.Sync.SkipOnEmptySource,
		},
	)
	deps.SyncRunner = sync.NewRunner(store, deps.UserService, deps.Syncer, locker, func(userId string) sync.SyncLogger {
		return sync.NewFileSyncLogger(logDir, userId)
	})
	deps.SyncHandler = sync.NewHandler(deps.SyncRunner, deps.Syncer, logDir)

	return deps
}
