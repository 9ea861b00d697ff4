package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/apperr"
)

// EmailController serves the links embedded in outgoing mail.
type EmailController struct {
	unsubscriber Unsubscriber
}

func NewEmailController(u Unsubscriber) *EmailController {
	return &EmailController{unsubscriber: u}
}

// Unsubscribe turns reminder emails off for the reader named by the signed token.
func (ec *EmailController) Unsubscribe(c *gin.Context) {
	user, err := ec.unsubscriber.Unsubscribe(c.Request.Context(), c.Query("token"))
	if err != nil {
		status := http.StatusInternalServerError
		message := "We could not update your email settings. Please try again later."
		if apperr.IsInvalidArgument(err) || apperr.IsNotFound(err) {
			status = http.StatusBadRequest
			message = "This unsubscribe link is invalid or has expired."
		} else {
			requestLogger(c).Error("Unsubscribe failed", "error", err)
		}
		c.HTML(status, "unsubscribe", pageData(c, "Email preferences", gin.H{"Message": message}))
		return
	}
	c.HTML(http.StatusOK, "unsubscribe", pageData(c, "Email preferences", gin.H{
		"Message": "Reminder emails are now off for " + user.Email + ".",
	}))
}
