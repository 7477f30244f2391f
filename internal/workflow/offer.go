package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
)

// Decision is the administrator's answer to a pending offer.
type Decision string

// Offer decisions
const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// ParseDecision accepts APPROVE or REJECT in any case.
func ParseDecision(raw string) (Decision, error) {
	switch d := Decision(strings.ToUpper(strings.TrimSpace(raw))); d {
	case DecisionApprove, DecisionReject:
		return d, nil
	default:
		return "", newError(CodeInvalidArgument, fmt.Sprintf("unknown decision %q", raw))
	}
}

// CreateOffer proposes an offer for the pair. A pair gets a single offer:
// once any offer exists, in any approval state, a new one is refused.
func (e *Engine) CreateOffer(ctx context.Context, actor Actor, pair Pair) (*model.OfferRecord, error) {
	var result *model.OfferRecord
	err := e.run(ctx, "CreateOffer", actor, pairAttrs(pair), func(ctx context.Context, tx Tx, out *outbox) error {
		student, company, err := loadPair(ctx, tx, actor, pair)
		if err != nil {
			return err
		}
		if err := checkFrozen(actor, company); err != nil {
			return err
		}
		if student.IsPlaced {
			return ErrAlreadyPlaced
		}

		record, err := tx.GetShortlist(ctx, pair)
		if err != nil {
			return err
		}
		if _, err := tx.FindOffer(ctx, pair); err == nil {
			return ErrOfferExists
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if record.IsOffered {
			return ErrOfferExists
		}

		offer := &model.OfferRecord{
			StudentID:      student.ID,
			CompanyID:      company.ID,
			ShortlistID:    record.ID,
			ApprovalStatus: model.ApprovalPending,
			OfferStatus:    model.OfferPending,
			CreatedBy:      actor.ID(),
		}
		if err := tx.CreateOffer(ctx, offer); err != nil {
			return err
		}

		record.IsOffered = true
		record.PreviousStage = model.StagePtr(record.CurrentStage())
		if err := tx.SaveShortlist(ctx, record); err != nil {
			return err
		}

		out.add(offerEvent(realtime.EventOfferCreated, offer, student, company))
		result = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DecideOffer applies the administrator's decision to a pending offer.
// Approval places the student and flags every other application of the
// student, all in the same unit of work.
func (e *Engine) DecideOffer(ctx context.Context, actor Actor, offerID uuid.UUID, decision Decision) (*model.OfferRecord, error) {
	if !actor.Unscoped() {
		return nil, newError(CodeForbidden, "only an administrator can decide offers")
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, newError(CodeInvalidArgument, fmt.Sprintf("unknown decision %q", decision))
	}

	attrs := []attribute.KeyValue{
		attribute.String("workflow.offer_id", offerID.String()),
		attribute.String("workflow.decision", string(decision)),
	}
	var result *model.OfferRecord
	err := e.run(ctx, "DecideOffer", actor, attrs, func(ctx context.Context, tx Tx, out *outbox) error {
		offer, err := tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		student, err := tx.LockStudent(ctx, offer.StudentID)
		if err != nil {
			return err
		}
		// Re-read under the student lock so a concurrent decision is visible.
		offer, err = tx.GetOffer(ctx, offerID)
		if err != nil {
			return err
		}
		if offer.ApprovalStatus != model.ApprovalPending {
			return ErrNotPending
		}
		company, err := tx.GetCompany(ctx, offer.CompanyID)
		if err != nil {
			return err
		}

		now := e.now().UTC()
		approver := actor.ID()
		offer.ApprovedBy = &approver
		offer.DecidedAt = &now

		if decision == DecisionReject {
			offer.ApprovalStatus = model.ApprovalRejected
			if err := tx.SaveOffer(ctx, offer); err != nil {
				return err
			}
			out.add(offerEvent(realtime.EventOfferRejected, offer, student, company))
			result = offer
			return nil
		}

		if student.IsPlaced {
			return ErrAlreadyPlaced
		}
		offer.ApprovalStatus = model.ApprovalApproved
		if err := tx.SaveOffer(ctx, offer); err != nil {
			return err
		}

		student.Place(*company, now)
		if err := tx.SaveStudent(ctx, student); err != nil {
			return err
		}

		records, err := tx.ListShortlistsByStudent(ctx, student.ID)
		if err != nil {
			return err
		}
		out.add(offerEvent(realtime.EventOfferApproved, offer, student, company))
		for i := range records {
			record := &records[i]
			if record.CompanyID == company.ID {
				continue
			}
			record.IsStudentPlaced = true
			record.StudentPlacedCompanyName = company.Name
			if err := tx.SaveShortlist(ctx, record); err != nil {
				return err
			}
			out.add(placedEvent(record, student, company))
		}

		result = offer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevertOffer withdraws an offer nobody has decided on yet and restores the
// stage the pair had when the offer was created. When no stage is recorded the
// current stage is kept.
func (e *Engine) RevertOffer(ctx context.Context, actor Actor, pair Pair) error {
	return e.run(ctx, "RevertOffer", actor, pairAttrs(pair), func(ctx context.Context, tx Tx, out *outbox) error {
		student, company, err := loadPair(ctx, tx, actor, pair)
		if err != nil {
			return err
		}
		if err := checkFrozen(actor, company); err != nil {
			return err
		}

		offer, err := tx.FindOffer(ctx, pair)
		if errors.Is(err, ErrNotFound) {
			return ErrNoOffer
		} else if err != nil {
			return err
		}
		if offer.OfferStatus != model.OfferPending || offer.ApprovalStatus != model.ApprovalPending {
			return ErrAlreadyDecided
		}

		record, err := tx.GetShortlist(ctx, pair)
		if err != nil {
			return err
		}
		if err := tx.DeleteOffer(ctx, offer.ID); err != nil {
			return err
		}

		// UndoRejection consumes the recorded stage; the current one is then already right.
		if record.PreviousStage != nil {
			record.Stage = model.StagePtr(record.PreviousStageValue())
		}
		record.PreviousStage = nil
		record.IsOffered = false
		if err := tx.SaveShortlist(ctx, record); err != nil {
			return err
		}

		out.add(offerEvent(realtime.EventOfferReverted, offer, student, company))
		return nil
	})
}

// placedEvent tells the company owning record that the student is no longer actionable.
func placedEvent(record *model.ShortlistRecord, student *model.Student, placedAt *model.Company) realtime.Event {
	shortlistID := record.ID
	studentID := student.ID
	return realtime.Event{
		Name:  realtime.EventStudentPlaced,
		Rooms: []realtime.Room{realtime.CompanyRoom(record.CompanyID)},
		Payload: realtime.Payload{
			ShortlistID:       &shortlistID,
			CompanyID:         record.CompanyID,
			StudentID:         &studentID,
			StudentName:       student.Name,
			PlacedCompanyName: placedAt.Name,
		},
	}
}
