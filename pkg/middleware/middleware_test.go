package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecoride/internal/data/entity"
	"ecoride/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubVerifier struct {
	valid string
}

func (s stubVerifier) Verify(token string) (utils.Identity, error) {
	if token != s.valid {
		return utils.Identity{}, utils.ErrInvalidToken
	}
	return utils.Identity{Subject: "sub-1", Email: "rider@example.com"}, nil
}

type stubProvisioner struct {
	user *entity.User
	err  error
}

func (s stubProvisioner) Provision(ctx context.Context, identity utils.Identity) (*entity.User, error) {
	return s.user, s.err
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestAuthenticate(t *testing.T) {
	log := zaptest.NewLogger(t)
	verifier := stubVerifier{valid: "good"}

	tests := []struct {
		name       string
		header     string
		query      string
		allowQuery bool
		wantStatus int
	}{
		{name: "valid bearer", header: "Bearer good", wantStatus: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusNoContent},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "query token allowed", query: "good", allowQuery: true, wantStatus: http.StatusNoContent},
		{name: "query token not allowed", query: "good", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen utils.Identity
			h := Authenticate(verifier, tt.allowQuery, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = utils.GetIdentityFromContext(r.Context())
				okHandler(w, r)
			}))

			target := "/api/users/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, "sub-1", seen.Subject)
			}
		})
	}
}

func TestProvision(t *testing.T) {
	log := zaptest.NewLogger(t)
	withIdentity := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(utils.SetIdentityContext(req.Context(), utils.Identity{Subject: "sub-1"}))
	}

	t.Run("sets user context", func(t *testing.T) {
		user := &entity.User{Role: entity.RoleDriver}
		user.ID = 42

		var gotID int64
		var gotRole string
		h := Provision(stubProvisioner{user: user}, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotID, _ = utils.GetUserIDFromContext(r.Context())
			gotRole, _ = utils.GetRoleFromContext(r.Context())
			okHandler(w, r)
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withIdentity())

		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, int64(42), gotID)
		assert.Equal(t, "driver", gotRole)
	})

	t.Run("suspended user is forbidden", func(t *testing.T) {
		user := &entity.User{Role: entity.RolePassenger, IsSuspended: true}
		user.ID = 7

		rec := httptest.NewRecorder()
		Provision(stubProvisioner{user: user}, log)(http.HandlerFunc(okHandler)).ServeHTTP(rec, withIdentity())

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("provisioning error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Provision(stubProvisioner{err: errors.New("db down")}, log)(http.HandlerFunc(okHandler)).ServeHTTP(rec, withIdentity())

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("no identity", func(t *testing.T) {
		rec := httptest.NewRecorder()
		Provision(stubProvisioner{}, log)(http.HandlerFunc(okHandler)).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	log := zaptest.NewLogger(t)
	h := RequireRole(log, entity.RoleEmployee, entity.RoleAdmin)(http.HandlerFunc(okHandler))

	for role, want := range map[string]int{
		"admin":     http.StatusNoContent,
		"employee":  http.StatusNoContent,
		"driver":    http.StatusForbidden,
		"passenger": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(utils.SetUserContext(req.Context(), 1, role))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecover(t *testing.T) {
	h := Recover(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":false,"message":"Internal server error"}`, rec.Body.String())
}

func TestLoggerCapturesStatus(t *testing.T) {
	h := Logger(zaptest.NewLogger(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://app.ecoride.test"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/api/trips", nil)
	req.Header.Set("Origin", "https://app.ecoride.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.ecoride.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
