// Package model contain gorm model for recording workflow data to database
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MinRounds and MaxRoundsLimit bound how many interview rounds a company may configure
const (
	MinRounds      = 1
	MaxRoundsLimit = 4
)

// Company is a recruiting company taking part in the placement drive
type Company struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:text;not null" json:"name"`
	MaxRounds int       `gorm:"not null;default:1;check:max_rounds BETWEEN 1 AND 4" json:"max_rounds"`

	// IsProcessCompleted freezes POC-side mutation for this company
	IsProcessCompleted bool `gorm:"type:boolean;default:false" json:"is_process_completed"`

	// POCIDs hold the user id of every POC assigned to this company
	POCIDs pq.StringArray `gorm:"type:text[]" json:"poc_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id and validates the configured round count.
func (c *Company) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return c.Validate()
}

// Validate checks that MaxRounds is within the supported range.
func (c *Company) Validate() error {
	if c.MaxRounds < MinRounds || c.MaxRounds > MaxRoundsLimit {
		return fmt.Errorf("max rounds must be between %d and %d, got %d", MinRounds, MaxRoundsLimit, c.MaxRounds)
	}
	return nil
}

// HasPOC reports whether userID is one of the company POCs.
func (c *Company) HasPOC(userID string) bool {
	for _, id := range c.POCIDs {
		if id == userID {
			return true
		}
	}
	return false
}
