package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/apperr"
	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages"`
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	requestLogger(c).Error("Internal error", "context", context, "error", err)
	if wantsJSON(c) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.HTML(http.StatusInternalServerError, "error", pageData(c, "Something went wrong", gin.H{
		"Message": "The request could not be completed. Please try again.",
	}))
}

// statusForError maps service errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case apperr.IsValidation(err), apperr.IsInvalidArgument(err), apperr.IsConflict(err):
		return http.StatusUnprocessableEntity
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondAppError answers a service error as JSON. Client errors carry the
// per-field messages; anything else is a logged 500.
func respondAppError(c *gin.Context, err error, context string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		respondInternalError(c, err, context)
		return
	}
	resp := ErrorResponse{Error: err.Error(), Fields: apperr.FieldErrors(err)}
	switch status {
	case http.StatusUnprocessableEntity:
		resp.Error = "The given data was invalid."
		resp.Code = "validation_failed"
	case http.StatusNotFound:
		resp.Code = "not_found"
	}
	c.JSON(status, resp)
}

// firstErrors flattens field errors to their first message for templates.
func firstErrors(fields map[string][]string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, msgs := range fields {
		if len(msgs) > 0 {
			out[k] = msgs[0]
		}
	}
	return out
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parsePage reads ?page= as a 1-based page number.
func parsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// --- Request Kind ---

func isHTMXRequest(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// wantsJSON reports whether the client sent or asked for JSON, or hit /api/.
func wantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	if strings.HasPrefix(c.ContentType(), "application/json") {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// currentUser returns the reader attached by the auth middleware. Routes are
// only mounted behind that middleware, so a nil user is a wiring bug.
func currentUser(c *gin.Context) (*entities.User, bool) {
	user := auth.GetUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return nil, false
	}
	return user, true
}

func requestLogger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get(contextKeyLogger); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return logger.Nop()
}
