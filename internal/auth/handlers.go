package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/apperr"
	"github.com/biblehabit/tracker/internal/config"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to the dashboard.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/dashboard"
}

// Renderer writes a named HTML template.
type Renderer func(c *gin.Context, status int, name string, data gin.H)

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	render         Renderer
	config         config.Auth
	rateLimiter    *RateLimiter
}

// NewAuthController creates a new authentication controller. With a nil
// renderer the pages are answered as JSON.
func NewAuthController(service *Service, sessionManager *SessionManager, render Renderer, cfg config.Auth) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		render:         render,
		config:         cfg,
		rateLimiter:    rateLimiter,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	hasUsers, _ := ac.service.HasUsers(c.Request.Context())
	if !hasUsers {
		c.Redirect(http.StatusFound, "/register")
		return
	}

	ac.renderPage(c, http.StatusOK, "login", gin.H{
		"Title": "Log in",
		"Next":  sanitizeRedirectPath(c.Query("next")),
		"Error": c.Query("error"),
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	page := gin.H{"Title": "Log in", "Next": next, "Email": email}

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, email); !allowed {
		c.Header("Retry-After", formatSeconds(retryAfter))
		page["Error"] = "Too many login attempts. Please try again later."
		ac.renderPage(c, http.StatusTooManyRequests, "login", page)
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		ac.rateLimiter.RecordFailure(clientIP, email)
		status := http.StatusUnauthorized
		page["Error"] = "These credentials do not match our records."
		if !errors.Is(err, ErrUserNotFound) && !errors.Is(err, ErrInvalidPassword) {
			status = http.StatusInternalServerError
			page["Error"] = "Something went wrong. Please try again."
		}
		ac.renderPage(c, status, "login", page)
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, email)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		page["Error"] = "Failed to create session"
		ac.renderPage(c, http.StatusInternalServerError, "login", page)
		return
	}

	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and redirects to login.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		_ = ac.sessionManager.DestroySession(c.Request)
	}
	c.Redirect(http.StatusFound, "/login")
}

// RegisterPage renders the sign-up form.
func (ac *AuthController) RegisterPage(c *gin.Context) {
	if IsAuthenticated(c) {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	ac.renderPage(c, http.StatusOK, "register", gin.H{
		"Title": "Create your account",
		"Error": c.Query("error"),
	})
}

// Register creates an account and signs the new reader in.
func (ac *AuthController) Register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		ac.renderPage(c, http.StatusBadRequest, "register", gin.H{
			"Title": "Create your account",
			"Error": "Invalid form submission.",
		})
		return
	}

	page := gin.H{
		"Title":    "Create your account",
		"Name":     in.Name,
		"Email":    in.Email,
		"Timezone": in.Timezone,
	}

	user, err := ac.service.Register(c.Request.Context(), in)
	if err != nil {
		var verr *apperr.ValidationError
		switch {
		case errors.As(err, &verr):
			page["Fields"] = verr.Fields
			page["Error"] = "Please fix the highlighted fields."
		case errors.Is(err, ErrPasswordTooShort):
			page["Error"] = "Password must be at least 8 characters."
		case errors.Is(err, ErrPasswordTooLong):
			page["Error"] = "Password exceeds maximum length of 72 characters."
		case errors.Is(err, ErrPasswordMismatch):
			page["Error"] = "Passwords do not match."
		case errors.Is(err, ErrUserExists):
			page["Error"] = "An account with this email already exists."
		default:
			page["Error"] = "Failed to create account."
			ac.renderPage(c, http.StatusInternalServerError, "register", page)
			return
		}
		ac.renderPage(c, http.StatusUnprocessableEntity, "register", page)
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (ac *AuthController) renderPage(c *gin.Context, status int, name string, data gin.H) {
	data["CSRFToken"] = GetCSRFToken(c)
	data["CSRFField"] = CSRFFieldName
	if ac.render == nil {
		c.JSON(status, data)
		return
	}
	ac.render(c, status, name, data)
}
