package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"live-placement-backend/internal/utilities"
)

// CheckRole will protect endpoint from user that is not a specific roles
func CheckRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, err := utilities.ExtractPrincipal(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: err.Error(),
			})
			return
		}

		if !utilities.Contains(roles, principal.Role) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, utilities.ErrorResponse{
				Error: "User doesn't have permission to access",
				Code:  "FORBIDDEN",
			})
			return
		}
		ctx.Next()
	}
}
