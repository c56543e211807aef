package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/calsweep/calsweep/internal/config"
	"github.com/calsweep/calsweep/internal/rest"
	"github.com/calsweep/calsweep/internal/storage"
	"github.com/calsweep/calsweep/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

const (
	tokenKind = "token"
	nonceKind = "oauthnonce"
)

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type oauthNonce struct {
	Nonce string `json:"nonce"`
}

// Auth owns the OAuth flow and hands out authenticated HTTP clients for the
// calendar adapter. Tokens are kept in the per-user blob store.
type Auth struct {
	store       storage.Store
	userService user.Service
	oauthConfig *oauth2.Config
}

func NewAuth(store storage.Store, userService user.Service, cfg config.Application) *Auth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/integrations/google/auth/callback",
		Scopes:       []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope},
	}

	return &Auth{store: store, userService: userService, oauthConfig: oauthConfig}
}

func (g *Auth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	userId, err := user.CurrentId(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusForbidden)
		return
	}

	stateNonce := uuid.New().String()
	finalUrl := r.URL.Query().Get("finalUrl")

	if err := g.store.Put(userId, nonceKind, oauthNonce{Nonce: stateNonce}); err != nil {
		log.Errorf("failed to store auth nonce for user %s: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Failed to handle Google authentication",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}

	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	state := userId + "|" + stateNonce + "|" + finalUrl
	u := g.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	w.WriteHeader(http.StatusOK)
	encodeErr := json.NewEncoder(w).Encode(googleAuthRedirect{
		RedirectUrl: u,
	})
	if encodeErr != nil {
		http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
	}
}

func (g *Auth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	state := r.FormValue("state")

	parts := strings.SplitN(state, "|", 3)
	if len(parts) != 3 {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	userId, nonce, finalUrl := parts[0], parts[1], parts[2]

	var stored oauthNonce
	found, err := g.store.Get(userId, nonceKind, &stored)
	if err != nil || !found || stored.Nonce != nonce {
		log.Errorf("auth state mismatch for user %s", userId)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	_ = g.store.Delete(userId, nonceKind)

	token, err := g.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		err := fmt.Errorf("unable to exchange code for token: %v", err)
		log.Error(err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	if err := g.store.Put(userId, tokenKind, token); err != nil {
		err := fmt.Errorf("unable to store Google auth token: %v", err)
		log.Error(err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	log.Debugf("Successfully stored Google auth token for user: %s", userId)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

func (g *Auth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusForbidden)
		return
	}

	if err := g.store.Delete(userId, tokenKind); err != nil {
		log.Errorf("failed to delete Google auth token for user %s: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		encodeErr := json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Failed to handle Google authentication",
		})
		if encodeErr != nil {
			http.Error(w, encodeErr.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Auth) getToken(userId string) (*oauth2.Token, error) {
	var token oauth2.Token
	found, err := g.store.Get(userId, tokenKind, &token)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google auth token: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &token, nil
}

func (g *Auth) getClient(ctx context.Context, userId string) (*http.Client, error) {
	token, err := g.getToken(userId)
	if err != nil {
		log.Error(err)
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	return g.oauthConfig.Client(ctx, token), nil
}
