package workflow

import "github.com/google/uuid"

// Actor is the capability set an operation runs with.
// Admins are unscoped and exempt from the process freeze; POCs are scoped to
// the companies they are assigned to.
type Actor struct {
	id        string
	unscoped  bool
	companies map[uuid.UUID]struct{}
}

// Admin returns an unscoped actor.
func Admin(id string) Actor {
	return Actor{id: id, unscoped: true}
}

// POC returns an actor scoped to the given companies.
func POC(id string, companies ...uuid.UUID) Actor {
	scope := make(map[uuid.UUID]struct{}, len(companies))
	for _, c := range companies {
		scope[c] = struct{}{}
	}
	return Actor{id: id, companies: scope}
}

// ID returns the user id of the actor.
func (a Actor) ID() string {
	return a.id
}

// Unscoped reports whether the actor can act on any company and decide offers.
func (a Actor) Unscoped() bool {
	return a.unscoped
}

// Covers reports whether the actor may act on companyID.
func (a Actor) Covers(companyID uuid.UUID) bool {
	if a.unscoped {
		return true
	}
	_, ok := a.companies[companyID]
	return ok
}

// FreezeExempt reports whether the actor ignores a completed company process.
func (a Actor) FreezeExempt() bool {
	return a.unscoped
}
