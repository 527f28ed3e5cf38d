package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"

	"github.com/fd1az/flashroute/internal/health"
)

func TestHealth_Degraded(t *testing.T) {
	s := health.NewServer(0, "test")
	s.RegisterCheck("rpc", func(context.Context) (bool, string) { return true, "" })
	s.RegisterCheck("scheduler", func(context.Context) (bool, string) { return false, "no cycle for 2m" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status health.Status
	require.NoError(t, sonnet.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "no cycle for 2m", status.Checks["scheduler"].Message)
	assert.True(t, status.Checks["rpc"].Healthy)
}

func TestReadyAndLive(t *testing.T) {
	s := health.NewServer(0, "test")
	s.RegisterCheck("rpc", func(context.Context) (bool, string) { return true, "" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, "alive", rec.Body.String())
}

func TestSingleCheck(t *testing.T) {
	s := health.NewServer(0, "test")
	s.RegisterCheck("heads", func(context.Context) (bool, string) { return false, "last head 3m ago" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/heads", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var check health.Check
	require.NoError(t, sonnet.Unmarshal(rec.Body.Bytes(), &check))
	assert.False(t, check.Healthy)
	assert.Equal(t, "last head 3m ago", check.Message)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoutes_GetOnly(t *testing.T) {
	s := health.NewServer(0, "test")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/live", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
