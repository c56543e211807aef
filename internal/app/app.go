package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/calsweep/calsweep/internal/config"
	"github.com/calsweep/calsweep/internal/storage"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Application wires configuration, storage, router, scheduler, and server
// lifecycle.
type Application struct {
	cfg       config.Application
	router    *mux.Router
	srv       *http.Server
	scheduler *cron.Cron
}

// NewApplication constructs the full HTTP application, ready to Run().
func NewApplication() (*Application, error) {
	cfg, err := config.Load("./config/application.yaml")
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	locker, err := storage.NewLocker(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	logDir := filepath.Join(cfg.DataDir, "logs")
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return nil, err
	}

	r := mux.NewRouter()

	// Build dependencies (services, handlers...)
	deps := BuildDependencies(store, locker, cfg, logDir)

	// Middleware chain
	SetupMiddleware(r, deps, cfg)

	// Routes
	RegisterRoutes(r, deps, cfg)

	// Scheduled sync runs
	var scheduler *cron.Cron
	if cfg.Sync.Schedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Sync.Schedule, func() {
			if err := deps.SyncRunner.SyncAllUsers(context.Background()); err != nil {
				log.Errorf("scheduled sync finished with errors: %v", err)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	srv := &http.Server{
		Handler:      r,
		Addr:         ":8181",
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Application{cfg: cfg, router: r, srv: srv, scheduler: scheduler}, nil
}

// Run starts the scheduler and the HTTP server and blocks.
func (a *Application) Run() error {
	if a.scheduler != nil {
		a.scheduler.Start()
		log.Infof("Scheduled sync enabled: %s", a.cfg.Sync.Schedule)
	}
	log.Infof("Starting server on %s", a.srv.Addr)
	return a.srv.ListenAndServe()
}
