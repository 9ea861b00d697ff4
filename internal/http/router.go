package http

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/web"
)

// NewRouter builds the engine with middleware and every route mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID(cfg.Logger))
	router.Use(RequestLogger(cfg.Logger))

	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(CORS(cfg.CORSOrigins))

	// CSRF runs before the session so a rejected request never touches it.
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}
	router.Use(PageContext(cfg.AppName, cfg.AuthConfig.Mode == config.AuthModeLocal))

	tmpl := template.Must(LoadTemplates(web.Templates(cfg.TemplatesPath)))
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/static", http.FS(web.Static(cfg.StaticPath)))

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	health := NewHealthController(cfg.Database, cfg.Cache, cfg.Version)
	dashboard := NewDashboardController(cfg.Stats, cfg.Streaks, cfg.History, cfg.Readings, cfg.Books, cfg.SessionManager)
	logs := NewLogsController(cfg.Readings, cfg.History, cfg.Books, cfg.SessionManager)
	progress := NewProgressController(cfg.Progress, cfg.Preferences, cfg.Books)
	email := NewEmailController(cfg.Email)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// Pages and HTMX fragments
	router.GET("/", dashboard.Home)
	router.GET("/dashboard", dashboard.Dashboard)
	router.GET("/dashboard/streak", dashboard.Streak)
	router.GET("/dashboard/stats", dashboard.Stats)

	router.GET("/logs", logs.Index)
	router.GET("/logs/create", logs.Create)
	router.POST("/logs", logs.Store)
	router.DELETE("/logs/:id", logs.Delete)
	router.POST("/logs/:id/delete", logs.Delete)
	router.GET("/logs/books/:bookId/chapters", logs.Chapters)

	router.GET("/progress", progress.Index)
	router.POST("/progress/testament", progress.SetTestament)

	router.GET("/email/unsubscribe", email.Unsubscribe)

	// JSON API
	api := router.Group("/api")
	{
		api.GET("/stats", dashboard.APIStats)
		api.GET("/books", progress.APIBooks)
		api.GET("/progress", progress.APIProgress)
		api.GET("/logs", logs.Index)
		api.POST("/logs", logs.Store)
		api.DELETE("/logs/:id", logs.Delete)
		api.GET("/books/:bookId/chapters", logs.Chapters)

		if cfg.Tasks != nil {
			tasksController := NewTasksController(cfg.Tasks)
			api.GET("/tasks/types", tasksController.ListTaskTypes)
			api.GET("/tasks/:id", tasksController.GetTaskStatus)
			api.POST("/tasks/:type/run", tasksController.RunTask)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		if wantsJSON(c) {
			respondNotFound(c, "page")
			return
		}
		c.HTML(http.StatusNotFound, "error", pageData(c, "Not found", gin.H{
			"Message": "There is nothing at this address.",
		}))
	})

	return router
}
