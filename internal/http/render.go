package http

import (
	"html/template"
	"io/fs"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/auth"
)

const (
	contextKeyAppName     = "app_name"
	contextKeyAuthEnabled = "auth_enabled"
)

var funcMap = template.FuncMap{
	"pct": func(v float64) string {
		return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// LoadTemplates parses every *.html file of fsys with the view helpers.
func LoadTemplates(fsys fs.FS) (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(fsys, "*.html")
}

// PageContext exposes layout-wide values to pageData.
func PageContext(appName string, authEnabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKeyAppName, appName)
		c.Set(contextKeyAuthEnabled, authEnabled)
		c.Next()
	}
}

// pageData builds the values every full page and fragment may use. Keys in
// extra win over the defaults.
func pageData(c *gin.Context, title string, extra gin.H) gin.H {
	data := gin.H{
		"App":         c.GetString(contextKeyAppName),
		"Title":       title,
		"User":        auth.GetUser(c),
		"AuthEnabled": c.GetBool(contextKeyAuthEnabled),
		"CSRFToken":   auth.GetCSRFToken(c),
		"CSRFField":   auth.CSRFFieldName,
		"Path":        c.Request.URL.Path,
		"Notice":      "",
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// RenderHTML is the auth.Renderer used for the account pages.
func RenderHTML(c *gin.Context, status int, name string, data gin.H) {
	title, _ := data["Title"].(string)
	c.HTML(status, name, pageData(c, title, data))
}

var _ auth.Renderer = RenderHTML
