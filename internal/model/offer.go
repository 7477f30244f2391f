package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalStatus is the administrator's disposition of an offer
type ApprovalStatus string

// OfferStatus is the student's own response to an approved offer
type OfferStatus string

var (
	// ApprovalPending is waiting for the administrator
	ApprovalPending ApprovalStatus = "PENDING"
	// ApprovalApproved is terminal and places the student
	ApprovalApproved ApprovalStatus = "APPROVED"
	// ApprovalRejected is terminal and keeps the pair offered
	ApprovalRejected ApprovalStatus = "REJECTED"

	// OfferPending means the student has not answered
	OfferPending OfferStatus = "PENDING"
	// OfferAccepted means the student accepted
	OfferAccepted OfferStatus = "ACCEPTED"
	// OfferDeclined means the student declined
	OfferDeclined OfferStatus = "DECLINED"
)

// OfferRecord is an offer proposed by a POC for a student, at most one per pair.
type OfferRecord struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_offer_pair" json:"student_id"`
	Student     Student         `gorm:"foreignKey:StudentID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_offer_pair;index" json:"company_id"`
	Company     Company         `gorm:"foreignKey:CompanyID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	ShortlistID uuid.UUID       `gorm:"type:uuid;not null" json:"shortlist_id"`
	Shortlist   ShortlistRecord `gorm:"foreignKey:ShortlistID;references:ID;constraint:OnDelete:RESTRICT" json:"-"`

	ApprovalStatus ApprovalStatus `gorm:"type:text;not null;default:'PENDING'" json:"approval_status"`
	OfferStatus    OfferStatus    `gorm:"type:text;not null;default:'PENDING'" json:"offer_status"`

	CreatedBy  string     `gorm:"type:text" json:"created_by"`
	ApprovedBy *string    `gorm:"type:text" json:"approved_by,omitempty"`
	DecidedAt  *time.Time `gorm:"type:timestamp" json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id and default statuses
func (o *OfferRecord) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.ApprovalStatus == "" {
		o.ApprovalStatus = ApprovalPending
	}
	if o.OfferStatus == "" {
		o.OfferStatus = OfferPending
	}
	return nil
}
