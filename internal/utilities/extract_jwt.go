package utilities

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// ExtractBearerToken reads the token from the Authorization header.
// Browsers cannot set headers on a websocket upgrade, so the token query
// parameter is accepted as a fallback.
func ExtractBearerToken(c *gin.Context) (string, error) {

	const BearerSchema = "Bearer "
	authHeader := c.GetHeader("Authorization")

	if authHeader == "" {
		if token := strings.TrimSpace(c.Query("token")); token != "" {
			return token, nil
		}
	}

	if len(authHeader) <= len(BearerSchema) || !strings.EqualFold(authHeader[:len(BearerSchema)], BearerSchema) {
		return "", fmt.Errorf("Invalid authorization header")
	}

	return authHeader[len(BearerSchema):], nil

}
