package workflow

import (
	"context"

	"github.com/google/uuid"

	"live-placement-backend/internal/model"
)

// Pair identifies one shortlist record.
type Pair struct {
	StudentID uuid.UUID `json:"student_id"`
	CompanyID uuid.UUID `json:"company_id"`
}

// Store runs a unit of work atomically.
// If fn returns an error nothing it wrote may be visible afterwards.
type Store interface {
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the State Store as seen from inside one atomic unit of work.
// Lookups of missing records return an error matching ErrNotFound.
// Inserts that collide with the pair uniqueness constraints return
// ErrOfferExists or ErrAlreadyShortlisted.
type Tx interface {
	// LockStudent loads the student and holds it until the unit of work ends.
	// Every mutation for one student is serialized through this lock.
	LockStudent(ctx context.Context, id uuid.UUID) (*model.Student, error)
	LockCompany(ctx context.Context, id uuid.UUID) (*model.Company, error)
	// ShareCompany loads the company under a shared lock. It conflicts with
	// LockCompany, so the process freeze flag cannot change until the unit of
	// work ends.
	ShareCompany(ctx context.Context, id uuid.UUID) (*model.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*model.Company, error)
	SaveStudent(ctx context.Context, s *model.Student) error
	SaveCompany(ctx context.Context, c *model.Company) error

	GetShortlist(ctx context.Context, pair Pair) (*model.ShortlistRecord, error)
	ListShortlistsByStudent(ctx context.Context, studentID uuid.UUID) ([]model.ShortlistRecord, error)
	CreateShortlist(ctx context.Context, r *model.ShortlistRecord) error
	SaveShortlist(ctx context.Context, r *model.ShortlistRecord) error
	DeleteShortlist(ctx context.Context, id uuid.UUID) error

	GetOffer(ctx context.Context, id uuid.UUID) (*model.OfferRecord, error)
	FindOffer(ctx context.Context, pair Pair) (*model.OfferRecord, error)
	CreateOffer(ctx context.Context, o *model.OfferRecord) error
	SaveOffer(ctx context.Context, o *model.OfferRecord) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error
}
