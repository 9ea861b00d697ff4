package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/cache"
	"github.com/biblehabit/tracker/internal/database/dbtest"
)

type failingPinger struct{}

func (failingPinger) Ping() error { return errors.New("connection refused") }

func healthStatus(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("healthy when database and cache respond", func(t *testing.T) {
		db := dbtest.New(t)
		code, response := healthStatus(t, NewHealthController(db, cache.NewMemory(), "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "ok (memory)", response.Checks["cache"])
		assert.NotEmpty(t, response.Time)
	})

	t.Run("unhealthy when the database is down", func(t *testing.T) {
		code, response := healthStatus(t, NewHealthController(failingPinger{}, nil, ""))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "connection refused")
		assert.NotContains(t, response.Checks, "cache")
	})

	t.Run("reports missing database", func(t *testing.T) {
		code, response := healthStatus(t, NewHealthController(nil, cache.Nop{}, ""))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "not configured", response.Checks["database"])
		assert.Equal(t, "ok (none)", response.Checks["cache"])
	})
}

func TestHealthController_Ping(t *testing.T) {
	router := gin.New()
	router.GET("/ping", NewHealthController(nil, nil, "").Ping)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
