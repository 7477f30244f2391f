package middleware

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"

	"live-placement-backend/internal/utilities"
)

func keyFunc(c *gin.Context) string {
	principal, err := utilities.ExtractPrincipal(c)
	if err != nil {
		return "ip: " + c.ClientIP()
	}
	return "user: " + principal.UserID
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.Header("Retry-After", info.ResetTime.UTC().Format(http.TimeFormat))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, utilities.ErrorResponse{
		Error: "Too many requests. Please try again later.",
	})
}

// RateLimiterMiddleware limits each user, or each client IP before
// authentication, to reqPerSec requests per second.
func RateLimiterMiddleware(reqPerSec uint) gin.HandlerFunc {
	if reqPerSec == 0 {
		reqPerSec = 5
	}

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Second,
		Limit: reqPerSec,
	})

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc:      keyFunc,
		ErrorHandler: errorHandler,
	})
}
