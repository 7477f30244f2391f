// Package utilities contain utility code that use across the package
package utilities

import (
	"errors"

	"github.com/gin-gonic/gin"

	"live-placement-backend/internal/realtime"
	"live-placement-backend/internal/workflow"
)

// Gin context keys set by the auth middleware
const (
	ActorKey     = "actor"
	PrincipalKey = "principal"
	ClaimsKey    = "claims"
)

// ErrorResponse type for swagger docs
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse type for swagger docs
type MessageResponse struct {
	Message string `json:"message"`
}

// ExtractActor extracts the workflow actor from Gin context.
// Only admins and POCs carry an actor.
func ExtractActor(c *gin.Context) (workflow.Actor, error) {
	a, _ := c.Get(ActorKey)
	if a == nil {
		return workflow.Actor{}, errors.New("Actor information not provided")
	}

	actor, ok := a.(workflow.Actor)
	if !ok {
		return workflow.Actor{}, errors.New("Failed to assert type")
	}
	return actor, nil
}

// ExtractPrincipal extracts the authenticated principal from Gin context.
func ExtractPrincipal(c *gin.Context) (realtime.Principal, error) {
	p, _ := c.Get(PrincipalKey)
	if p == nil {
		return realtime.Principal{}, errors.New("User information not provided")
	}

	principal, ok := p.(realtime.Principal)
	if !ok {
		return realtime.Principal{}, errors.New("Failed to assert type")
	}
	return principal, nil
}
