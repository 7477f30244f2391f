package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student is a candidate together with its placement.
// A student has at most one active placement, held here rather than on any
// single shortlist record.
type Student struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name  string    `gorm:"type:text" json:"name"`
	Email *string   `gorm:"type:text;uniqueIndex" json:"email"`

	IsPlaced          bool       `gorm:"type:boolean;default:false" json:"is_placed"`
	PlacedCompanyID   *uuid.UUID `gorm:"type:uuid" json:"placed_company_id,omitempty"`
	PlacedCompanyName string     `gorm:"type:text" json:"placed_company_name,omitempty"`
	PlacedAt          *time.Time `gorm:"type:timestamp" json:"placed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id when none is set
func (s *Student) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Place marks the student as placed at company.
func (s *Student) Place(company Company, at time.Time) {
	id := company.ID
	s.IsPlaced = true
	s.PlacedCompanyID = &id
	s.PlacedCompanyName = company.Name
	s.PlacedAt = &at
}
