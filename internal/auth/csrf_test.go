package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCSRFRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(CSRFMiddleware([]byte("0123456789abcdef0123456789abcdef"), false, "/webhook"))
	router.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, GetCSRFToken(c))
	})
	handled := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	router.POST("/logs", handled)
	router.POST("/api/logs", handled)
	router.POST("/webhook", handled)
	return router
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	router := setupCSRFRouter(t)

	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(`{}`))
		req.Header.Set("Accept", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "CSRF")
		assert.NotContains(t, w.Body.String(), "ok", "handler must not run")
	})

	t.Run("form with local referer redirects back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/logs", nil)
		req.Header.Set("Referer", "/logs/create")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/logs/create?error="))
	})

	t.Run("foreign referer gets plain page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/logs", nil)
		req.Header.Set("Referer", "https://evil.example/form")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Session Expired")
	})
}

func TestCSRF_AcceptsValidToken(t *testing.T) {
	router := setupCSRFRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Body.String()
	require.NotEmpty(t, token)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	t.Run("header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/logs", nil)
		req.Header.Set(CSRFTokenHeader, token)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("form field", func(t *testing.T) {
		body := url.Values{CSRFFieldName: {token}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/logs", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCSRF_ExemptPath(t *testing.T) {
	router := setupCSRFRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhook", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "https://unpkg.com")
}
