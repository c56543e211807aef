package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calsweep/calsweep/internal/config"
	"github.com/calsweep/calsweep/pkg/user"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareRouter(t *testing.T) (*mux.Router, *string) {
	t.Helper()
	r := mux.NewRouter()
	SetupMiddleware(r, &Dependencies{}, config.Application{})

	var seenId string
	r.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		id, err := user.CurrentId(req.Context())
		if err == nil {
			seenId = id
		}
		w.WriteHeader(http.StatusOK)
	})
	return r, &seenId
}

func TestUserIdMiddleware(t *testing.T) {
	t.Run("propagates a plain user id into the context", func(t *testing.T) {
		r, seenId := newMiddlewareRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-User-Id", "user-1")
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", *seenId)
	})

	t.Run("rejects ids carrying path separators", func(t *testing.T) {
		for _, id := range []string{"../escaped", "a/b", `a\b`, ".."} {
			r, seenId := newMiddlewareRouter(t)
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("X-User-Id", id)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusForbidden, rec.Code, "id %q", id)
			assert.Empty(t, *seenId, "id %q", id)
		}
	})

	t.Run("requests without the header pass through anonymously", func(t *testing.T) {
		r, seenId := newMiddlewareRouter(t)
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		rec := httptest.NewRecorder()

		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, *seenId)
	})
}
