package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCORSMiddlewareSetsHeaders(t *testing.T) {
	s := newTestServer(t, &mockPipeline{})
	handler := s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSMiddlewareShortCircuitsOptions(t *testing.T) {
	s := newTestServer(t, &mockPipeline{})
	called := false
	handler := s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodOptions, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, called)
}

func TestRateLimitMiddlewareSkippedWhenUnconfigured(t *testing.T) {
	s := newTestServer(t, &mockPipeline{})
	require.Nil(t, s.rateLimiter)

	called := false
	handler := s.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) { called = true })
	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	require.True(t, called)
}

func TestRateLimitMiddlewareBlocksOverLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = RateLimitConfig{RequestsPerMinute: 1}
	s, err := NewServer(cfg, &mockPipeline{})
	require.NoError(t, err)
	require.NotNil(t, s.rateLimiter)

	handler := s.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ocr", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec1 := httptest.NewRecorder()
	handler(rec1, req)
	require.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	handler(rec2, req)
	require.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	require.Equal(t, "203.0.113.5", getClientIP(req))
}

func TestGetClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	require.Equal(t, "192.0.2.1", getClientIP(req))
}
