package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/bible"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/services/stats"
	"github.com/biblehabit/tracker/internal/streak"
)

const recentLogCount = 5

// DashboardController serves the home page and its live-updating cards.
type DashboardController struct {
	stats    StatsReader
	streaks  StreakPresenter
	history  LogHistory
	readings ReadingLogger
	books    *bible.Table
	sessions *auth.SessionManager
	now      func() time.Time
}

func NewDashboardController(
	statsReader StatsReader,
	streaks StreakPresenter,
	history LogHistory,
	readings ReadingLogger,
	books *bible.Table,
	sessions *auth.SessionManager,
) *DashboardController {
	return &DashboardController{
		stats:    statsReader,
		streaks:  streaks,
		history:  history,
		readings: readings,
		books:    books,
		sessions: sessions,
		now:      time.Now,
	}
}

func (d *DashboardController) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/dashboard")
}

// cards computes the stats and the streak card that both depend on them.
func (d *DashboardController) cards(c *gin.Context, user *entities.User) (*stats.Stats, streak.Display, error) {
	st, err := d.stats.ForUser(c.Request.Context(), user)
	if err != nil {
		return nil, streak.Display{}, err
	}
	now := d.now().In(user.Location())
	display := d.streaks.Display(st.CurrentStreak, st.LongestStreak, st.HasReadToday, now, user.Email)
	return st, display, nil
}

func (d *DashboardController) Dashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	st, display, err := d.cards(c, user)
	if err != nil {
		respondInternalError(c, err, "dashboard stats")
		return
	}
	recent, err := d.history.Recent(c.Request.Context(), user.ID, recentLogCount)
	if err != nil {
		respondInternalError(c, err, "dashboard recent logs")
		return
	}

	today, yesterday := d.readings.AllowedDates(user)
	data := gin.H{
		"Stats":     st,
		"Streak":    display,
		"Recent":    recent,
		"Books":     d.books.ListBooks(),
		"Today":     today,
		"Yesterday": yesterday,
		"Input":     map[string]string(nil),
		"Errors":    map[string]string(nil),
	}
	if d.sessions != nil {
		flash := d.sessions.PopFlash(c.Request.Context())
		data["Notice"] = flash.Notice
		data["Input"] = flash.Input
		data["Errors"] = flash.Errors
	}
	c.HTML(http.StatusOK, "dashboard", pageData(c, "Dashboard", data))
}

// Streak renders the streak card fragment.
func (d *DashboardController) Streak(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	_, display, err := d.cards(c, user)
	if err != nil {
		respondInternalError(c, err, "streak card")
		return
	}
	c.HTML(http.StatusOK, "streak_card", gin.H{"Streak": display})
}

// Stats renders the weekly stats card fragment.
func (d *DashboardController) Stats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	st, err := d.stats.ForUser(c.Request.Context(), user)
	if err != nil {
		respondInternalError(c, err, "stats card")
		return
	}
	c.HTML(http.StatusOK, "stats_card", gin.H{"Stats": st})
}

// StatsResponse is the JSON form of the dashboard.
type StatsResponse struct {
	Stats  *stats.Stats   `json:"stats"`
	Streak streak.Display `json:"streak"`
}

func (d *DashboardController) APIStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	st, display, err := d.cards(c, user)
	if err != nil {
		respondInternalError(c, err, "api stats")
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Stats: st, Streak: display})
}
