package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/cache"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	db      Pinger
	cache   cache.Cache
	version string
}

func NewHealthController(db Pinger, c cache.Cache, version string) *HealthController {
	return &HealthController{
		db:      db,
		cache:   c,
		version: version,
	}
}

// Status reports database and cache reachability. A cache failure degrades
// the response but does not make it unhealthy.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.cache != nil {
		if st, err := h.cache.Stats(c.Request.Context()); err != nil {
			checks["cache"] = "error: " + err.Error()
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			checks["cache"] = "ok (" + st.Driver + ")"
		}
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}

func (h *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
