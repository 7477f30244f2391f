// Package middleware contain utilities middleware code
package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"live-placement-backend/internal/auth"
	"live-placement-backend/internal/database"
	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
	"live-placement-backend/internal/utilities"
	"live-placement-backend/internal/workflow"
)

// RequireAuth function is a middleware that validates a Bearer token and
// resolves the caller into a realtime principal and, for admins and POCs, a
// workflow actor. POC company scope is read from the database on every request.
func RequireAuth(db *database.DBinstanceStruct, secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: err.Error(),
			})
			return
		}

		claims, err := auth.ValidatedToken(secret, tokenString)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
					Error: "Access token expired",
				})
				return
			}

			if errors.Is(err, jwt.ErrTokenInvalidIssuer) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
					Error: "Invalid token issuer",
				})
				return
			}

			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to validate token: %s", err.Error()),
			})
			return
		}
		ctx.Set(utilities.ClaimsKey, claims)

		principal := realtime.Principal{UserID: claims.Subject, Role: claims.Role}

		switch claims.Role {
		case model.RoleAdmin:
			ctx.Set(utilities.ActorKey, workflow.Admin(claims.Subject))
		case model.RolePOC:
			companyIDs, err := db.POCCompanyIDs(ctx.Request.Context(), claims.Subject)
			if err != nil {
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, utilities.ErrorResponse{
					Error: fmt.Sprintf("Failed to retrieve POC companies: %s", err.Error()),
				})
				return
			}
			principal.CompanyIDs = companyIDs
			ctx.Set(utilities.ActorKey, workflow.POC(claims.Subject, companyIDs...))
		case model.RoleStudent:
			if _, err := uuid.Parse(claims.Subject); err != nil {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
					Error: "Invalid student subject",
				})
				return
			}
		default:
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: auth.ErrInvalidRole.Error(),
			})
			return
		}

		ctx.Set(utilities.PrincipalKey, principal)
		ctx.Next()
	}
}
