// file: handler/auth_middleware_test.go

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-contacts-api/model"
	"go-contacts-api/service"
)

func newTestAuthMiddleware(t *testing.T) (*AuthMiddleware, *service.TokenCodec, *service.MemoryRevocationLedger) {
	t.Helper()
	codec := service.NewTokenCodec("middleware-test-secret", 0)
	ledger := service.NewMemoryRevocationLedger()
	return NewAuthMiddleware(codec, ledger), codec, ledger
}

func TestAuthMiddleware_Handle(t *testing.T) {
	mw, codec, ledger := newTestAuthMiddleware(t)

	var gotUsername, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUsername, _ = r.Context().Value(UsernameKey).(string)
		gotRole, _ = r.Context().Value(UserRoleKey).(string)
		w.WriteHeader(http.StatusOK)
	})

	serve := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		mw.Handle(next).ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve("").Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve("Token abc").Code)
		assert.Equal(t, http.StatusUnauthorized, serve("Bearer").Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve("Bearer not-a-jwt").Code)
	})

	t.Run("valid token populates the request context", func(t *testing.T) {
		token, _, err := codec.IssueAccessToken("ali", string(model.RoleAdmin), 15*time.Minute)
		require.NoError(t, err)

		rec := serve("Bearer " + token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ali", gotUsername)
		assert.Equal(t, string(model.RoleAdmin), gotRole)
	})

	t.Run("revoked jti is rejected", func(t *testing.T) {
		token, jti, err := codec.IssueAccessToken("ali", string(model.RoleUser), 15*time.Minute)
		require.NoError(t, err)
		require.NoError(t, ledger.Revoke(context.Background(), jti, time.Now().Add(15*time.Minute)))

		assert.Equal(t, http.StatusUnauthorized, serve("Bearer "+token).Code)
	})
}

func TestAdminMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(role any) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if role != nil {
			req = req.WithContext(context.WithValue(req.Context(), UserRoleKey, role))
		}
		rec := httptest.NewRecorder()
		AdminMiddleware(next).ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusForbidden, serve(nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(string(model.RoleUser)).Code)
	assert.Equal(t, http.StatusOK, serve(string(model.RoleAdmin)).Code)
}
