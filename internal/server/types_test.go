package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewServerDefaults(t *testing.T) {
	mp := &mockPipeline{}
	s, err := NewServer(DefaultConfig(), mp)
	require.NoError(t, err)
	require.Equal(t, "*", s.corsOrigin)
	require.Nil(t, s.rateLimiter)
}

func TestNewServerConfiguresRateLimiter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.RequestsPerMinute = 10
	s, err := NewServer(cfg, &mockPipeline{})
	require.NoError(t, err)
	require.NotNil(t, s.rateLimiter)
}

func TestServerCloseClosesPipeline(t *testing.T) {
	mp := &mockPipeline{}
	s, err := NewServer(DefaultConfig(), mp)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.True(t, mp.closed)
}

func TestServerCloseNilPipeline(t *testing.T) {
	s, err := NewServer(DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestSetupRoutesRegistersEndpoints(t *testing.T) {
	s := newTestServer(t, &mockPipeline{})
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestBoxFromPolygon(t *testing.T) {
	results := sampleResults()
	box := boxFromPolygon(results[0].Box)
	require.Len(t, box.X, 4)
	require.Len(t, box.Y, 4)
	require.Equal(t, 10.0, box.X[0])
	require.Equal(t, 10.0, box.Y[0])
}
