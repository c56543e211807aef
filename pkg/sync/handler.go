package sync

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/calsweep/calsweep/internal/rest"
	"github.com/calsweep/calsweep/internal/storage"
	"github.com/calsweep/calsweep/pkg/google"
	"github.com/calsweep/calsweep/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	runner *Runner
	syncer *Syncer
	logDir string
}

type ResultDto struct {
	Created  int `json:"created"`
	Deleted  int `json:"deleted"`
	Excluded int `json:"excluded"`
}

type LogDto struct {
	Lines []string `json:"lines"`
}

func NewHandler(runner *Runner, syncer *Syncer, logDir string) *Handler {
	return &Handler{runner: runner, syncer: syncer, logDir: logDir}
}

// TriggerSync runs a sync pass for the current user right away.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	result, err := h.runner.SyncUser(r.Context(), userId)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrLocked):
			w.WriteHeader(http.StatusConflict)
			h.encodeError(w, "A sync is already running")
		case errors.Is(err, ErrNotConfigured):
			w.WriteHeader(http.StatusBadRequest)
			h.encodeError(w, "Source or target calendar is not configured")
		case errors.Is(err, google.ErrUnauthenticated):
			w.WriteHeader(http.StatusForbidden)
			h.encodeError(w, "Google Calendar is not connected")
		default:
			log.Errorf("sync failed for user %s: %v", userId, err)
			w.WriteHeader(http.StatusInternalServerError)
			h.encodeError(w, "Sync failed")
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(ResultDto(result)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetLog returns the current user's sync log, most recent entries last.
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	maxLines := 0
	if raw := r.URL.Query().Get("lines"); raw != "" {
		maxLines, err = strconv.Atoi(raw)
		if err != nil || maxLines < 0 {
			w.WriteHeader(http.StatusBadRequest)
			h.encodeError(w, "Invalid lines parameter")
			return
		}
	}

	lines, err := ReadUserLog(h.logDir, userId, maxLines)
	if err != nil {
		log.Errorf("failed to read sync log for user %s: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(LogDto{Lines: lines}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ClearCache drops the delta and feed caches so the next run rescans the
// destination calendar.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	if err := h.syncer.ClearCaches(userId); err != nil {
		log.Errorf("failed to clear caches for user %s: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) encodeError(w http.ResponseWriter, msg string) {
	if err := json.NewEncoder(w).Encode(rest.ErrorResponse{Error: msg}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
