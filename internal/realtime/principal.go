package realtime

import (
	"context"

	"github.com/google/uuid"

	"live-placement-backend/internal/model"
)

// Principal is the authenticated owner of a session.
type Principal struct {
	UserID     string
	Role       string
	CompanyIDs []uuid.UUID
}

// CanJoin reports whether the principal may subscribe to room.
func (p Principal) CanJoin(room Room) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RolePOC:
		if room == POCRoom {
			return true
		}
		id, ok := room.CompanyID()
		if !ok {
			return false
		}
		for _, c := range p.CompanyIDs {
			if c == id {
				return true
			}
		}
		return false
	case model.RoleStudent:
		id, ok := room.StudentID()
		return ok && id.String() == p.UserID
	default:
		return false
	}
}

// CompanyScope returns the companies a POC is assigned to right now.
type CompanyScope func(ctx context.Context, userID string) ([]uuid.UUID, error)

type principalContextKey struct{}

// WithPrincipal stores p in ctx for the gateway.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
