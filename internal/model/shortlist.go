package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShortlistStatus is the initial bucket a student is put in
type ShortlistStatus string

var (
	// ShortlistStatusShortlisted is the main list of a company
	ShortlistStatusShortlisted ShortlistStatus = "SHORTLISTED"
	// ShortlistStatusWaitlisted is the reserve list of a company
	ShortlistStatusWaitlisted ShortlistStatus = "WAITLISTED"
)

// Valid reports whether s is a known bucket.
func (s ShortlistStatus) Valid() bool {
	return s == ShortlistStatusShortlisted || s == ShortlistStatusWaitlisted
}

// Stage is the interview round of a student inside one company process
type Stage string

// Interview stages. StageRejected is terminal until undone.
const (
	StageR1       Stage = "R1"
	StageR2       Stage = "R2"
	StageR3       Stage = "R3"
	StageR4       Stage = "R4"
	StageRejected Stage = "REJECTED"
)

// Round returns the round number of a round stage, or 0 for REJECTED and unknown values.
func (s Stage) Round() int {
	switch s {
	case StageR1:
		return 1
	case StageR2:
		return 2
	case StageR3:
		return 3
	case StageR4:
		return 4
	default:
		return 0
	}
}

// AllowedFor reports whether the stage is a legal target for a company running maxRounds rounds.
func (s Stage) AllowedFor(maxRounds int) bool {
	if s == StageRejected {
		return true
	}
	n := s.Round()
	return n >= 1 && n <= maxRounds
}

// ParseStage converts raw input into a Stage.
func ParseStage(raw string) (Stage, error) {
	stage := Stage(raw)
	if stage == StageRejected || stage.Round() > 0 {
		return stage, nil
	}
	return "", fmt.Errorf("unknown stage: %s", raw)
}

// ShortlistRecord is one student's application at one company.
// It is unique on (student_id, company_id).
type ShortlistRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shortlist_pair" json:"student_id"`
	Student   Student   `gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_shortlist_pair;index" json:"company_id"`
	Company   Company   `gorm:"foreignKey:CompanyID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Status        ShortlistStatus `gorm:"type:text;not null;default:'SHORTLISTED'" json:"status"`
	Stage         *Stage          `gorm:"type:text" json:"stage"`
	PreviousStage *Stage          `gorm:"type:text" json:"previous_stage"`
	IsOffered     bool            `gorm:"type:boolean;default:false" json:"is_offered"`

	// Denormalized from the student's placement by the approval cascade
	IsStudentPlaced          bool   `gorm:"type:boolean;default:false" json:"is_student_placed"`
	StudentPlacedCompanyName string `gorm:"type:text" json:"student_placed_company_name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id when none is set
func (r *ShortlistRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = ShortlistStatusShortlisted
	}
	return nil
}

// CurrentStage returns the stage or "" when no round has started.
func (r *ShortlistRecord) CurrentStage() Stage {
	if r.Stage == nil {
		return ""
	}
	return *r.Stage
}

// StagePtr returns a pointer to a copy of s, or nil for the empty stage.
func StagePtr(s Stage) *Stage {
	if s == "" {
		return nil
	}
	return &s
}

// PreviousStageValue returns the recorded previous stage or "" when none was recorded.
func (r *ShortlistRecord) PreviousStageValue() Stage {
	if r.PreviousStage == nil {
		return ""
	}
	return *r.PreviousStage
}
