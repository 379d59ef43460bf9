// file: handler/ratelimit_test.go

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Handle(t *testing.T) {
	rl := NewRateLimiter(3)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		rl.Handle(next).ServeHTTP(rec, req)
		return rec
	}

	// Burst budget admits the first three requests, then rejects.
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve("10.0.0.1:5000").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:5000").Code)

	// Budgets are tracked per client.
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:5000").Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.9:4242"
	assert.Equal(t, "192.168.1.9", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}
