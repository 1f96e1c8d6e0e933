package middleware

import (
	"github.com/gin-gonic/gin"
	appinvoice "github.com/shopfront/backend/internal/application/invoice"
)

// Language resolves Accept-Language against the supported status label languages
// and stores the match in the request context.
func Language(labels *appinvoice.StatusLabels) gin.HandlerFunc {
	return func(c *gin.Context) {
		tag := labels.Match(c.GetHeader("Accept-Language"))
		c.Header("Content-Language", tag.String())
		c.Request = c.Request.WithContext(appinvoice.WithLanguage(c.Request.Context(), tag))
		c.Next()
	}
}
