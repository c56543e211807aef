package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/calsweep/calsweep/internal/rest"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	service Service
}

type UserDto struct {
	Id          string      `json:"id"`
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	Settings    SettingsDto `json:"settings"`
}

type SettingsDto struct {
	SourceId       string   `json:"sourceId"`
	TargetId       string   `json:"targetId"`
	FilterPatterns []string `json:"filterPatterns"`
	SourceTimezone string   `json:"sourceTimezone"`
}

func NewHandler(service Service) *Handler {
	return &Handler{service}
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	u, err := h.service.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		log.Errorf("failed to get current user: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toUserDto(u)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	var dto SettingsDto
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Invalid settings payload",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	u, err := h.service.UpdateSettings(r.Context(), Settings{
		SourceId:       dto.SourceId,
		TargetId:       dto.TargetId,
		FilterPatterns: dto.FilterPatterns,
		SourceTimezone: dto.SourceTimezone,
	})
	if err != nil {
		if errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		log.Errorf("failed to update settings: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toUserDto(u)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toUserDto(u User) UserDto {
	return UserDto{
		Id:          u.Id,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Settings: SettingsDto{
			SourceId:       u.Settings.SourceId,
			TargetId:       u.Settings.TargetId,
			FilterPatterns: u.Settings.FilterPatterns,
			SourceTimezone: u.Settings.SourceTimezone,
		},
	}
}
