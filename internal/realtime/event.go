package realtime

import (
	"time"

	"github.com/google/uuid"
)

// EventName is the type of a published change.
type EventName string

// Event taxonomy.
const (
	EventShortlistAdded   EventName = "shortlist:added"
	EventShortlistUpdate  EventName = "shortlist:update"
	EventShortlistRemoved EventName = "shortlist:removed"
	EventOfferCreated     EventName = "offer:created"
	EventOfferApproved    EventName = "offer:approved"
	EventOfferRejected    EventName = "offer:rejected"
	EventOfferReverted    EventName = "offer:reverted"
	EventStudentPlaced    EventName = "student:placed"
	EventProcessChanged   EventName = "company:process-changed"
)

// Event is a refetch signal fanned out to rooms. It is not a state delta.
type Event struct {
	Name    EventName `json:"name"`
	Rooms   []Room    `json:"rooms"`
	Payload Payload   `json:"payload"`
	SentAt  time.Time `json:"sent_at"`
}

// Payload carries ids plus a few denormalized fields for toast display.
type Payload struct {
	ShortlistID *uuid.UUID `json:"shortlist_id,omitempty"`
	OfferID     *uuid.UUID `json:"offer_id,omitempty"`
	CompanyID   uuid.UUID  `json:"company_id"`
	StudentID   *uuid.UUID `json:"student_id,omitempty"`
	CompanyName string     `json:"company_name,omitempty"`
	StudentName string     `json:"student_name,omitempty"`
	Stage       string     `json:"stage,omitempty"`

	// Set on student:placed only
	PlacedCompanyName string `json:"placed_company_name,omitempty"`

	// Set on company:process-changed only
	ProcessCompleted *bool `json:"is_process_completed,omitempty"`
}

// Publisher fans events out. Publish must not block on slow subscribers.
type Publisher interface {
	Publish(ev Event) int
}
