package app

import (
	"net/http"

	"github.com/calsweep/calsweep/internal/config"
	"github.com/calsweep/calsweep/internal/storage"
	"github.com/calsweep/calsweep/pkg/user"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Propagate X-User-Id header into context for downstream services. The
	// id names storage files, lock files and log files, so anything that is
	// not a plain path component is rejected here.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if userId := req.Header.Get("X-User-Id"); userId != "" {
				if !storage.ValidUserId(userId) {
					log.Warnf("rejecting request with invalid user id %q", userId)
					http.Error(w, "invalid user id", http.StatusForbidden)
					return
				}
				log.Debugf("request for user %s", userId)
				ctx = user.WithId(ctx, userId)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
