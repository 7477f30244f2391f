package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit is enough for every JSON body the API accepts
const DefaultBodyLimit = int64(16 * 1024)

// SizeLimit caps the request body at maxBodyBytes. Reading past the cap
// yields *http.MaxBytesError, which handlers answer with 413.
func SizeLimit(maxBodyBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBodyBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Entity too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

		c.Next()
	}
}
