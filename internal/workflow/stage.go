package workflow

import (
	"context"
	"errors"
	"fmt"

	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
)

// AdvanceStage moves the pair to target. Any round up to the company's
// MaxRounds is accepted regardless of the current round, including moving
// backwards. Entering REJECTED records the current stage for UndoRejection.
func (e *Engine) AdvanceStage(ctx context.Context, actor Actor, pair Pair, target model.Stage) (*model.ShortlistRecord, error) {
	var result *model.ShortlistRecord
	err := e.run(ctx, "AdvanceStage", actor, pairAttrs(pair), func(ctx context.Context, tx Tx, out *outbox) error {
		student, company, err := loadPair(ctx, tx, actor, pair)
		if err != nil {
			return err
		}
		if !target.AllowedFor(company.MaxRounds) {
			return newError(CodeInvalidStage, fmt.Sprintf("stage %q is not valid for a %d round process", target, company.MaxRounds))
		}
		if err := checkFrozen(actor, company); err != nil {
			return err
		}
		if student.IsPlaced {
			return ErrPlacementLocked
		}

		record, err := tx.GetShortlist(ctx, pair)
		if err != nil {
			return err
		}
		if record.CurrentStage() == target {
			result = record
			return nil
		}

		if target == model.StageRejected {
			record.PreviousStage = model.StagePtr(record.CurrentStage())
		}
		record.Stage = model.StagePtr(target)
		if err := tx.SaveShortlist(ctx, record); err != nil {
			return err
		}

		out.add(shortlistEvent(realtime.EventShortlistUpdate, record, student, company))
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UndoRejection restores the stage held before the pair was rejected.
// With no recorded stage the pair goes back to not having started a round.
func (e *Engine) UndoRejection(ctx context.Context, actor Actor, pair Pair) (*model.ShortlistRecord, error) {
	var result *model.ShortlistRecord
	err := e.run(ctx, "UndoRejection", actor, pairAttrs(pair), func(ctx context.Context, tx Tx, out *outbox) error {
		student, company, err := loadPair(ctx, tx, actor, pair)
		if err != nil {
			return err
		}
		if err := checkFrozen(actor, company); err != nil {
			return err
		}
		if student.IsPlaced {
			return ErrPlacementLocked
		}

		record, err := tx.GetShortlist(ctx, pair)
		if err != nil {
			return err
		}
		if record.CurrentStage() != model.StageRejected {
			return ErrNotRejected
		}

		record.Stage = model.StagePtr(record.PreviousStageValue())
		record.PreviousStage = nil
		if err := tx.SaveShortlist(ctx, record); err != nil {
			return err
		}

		out.add(shortlistEvent(realtime.EventShortlistUpdate, record, student, company))
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateStatus moves the pair between the SHORTLISTED and WAITLISTED buckets.
func (e *Engine) UpdateStatus(ctx context.Context, actor Actor, pair Pair, status model.ShortlistStatus) (*model.ShortlistRecord, error) {
	if !status.Valid() {
		return nil, newError(CodeInvalidArgument, fmt.Sprintf("unknown shortlist status %q", status))
	}

	var result *model.ShortlistRecord
	err := e.run(ctx, "UpdateStatus", actor, pairAttrs(pair), func(ctx context.Context, tx Tx, out *outbox) error {
		student, company, err := loadPair(ctx, tx, actor, pair)
		if err != nil {
			return err
		}
		if err := checkFrozen(actor, company); err != nil {
			return err
		}
		if student.IsPlaced {
			return ErrPlacementLocked
		}

		record, err := tx.GetShortlist(ctx, pair)
		if err != nil {
			return err
		}
		if record.Status == status {
			result = record
			return nil
		}

		record.Status = status
		if err := tx.SaveShortlist(ctx, record); err != nil {
			return err
		}

		out.add(shortlistEvent(realtime.EventShortlistUpdate, record, student, company))
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddToShortlist puts a student on a company's list. An empty status means SHORTLISTED.
// A student who is already placed elsewhere gets the placed flags straight away.
func (e *Engine) AddToShortlist(ctx context.Context, actor Actor, pair Pair, status model.ShortlistStatus) (*model.ShortlistRecord, error) {
	if status == "" {
		status = model.ShortlistStatusShortlisted
	}
	if !status.Valid() {
		return nil, newError(CodeInvalidArgument, fmt.Sprintf("unknown shortlist status %q", status))
	}

	var result *model.ShortlistRecord
	err := e.run(ctx, "AddToShortlist", actor, pairAttrs(pair), func(ctx context.Context, tx Tx, out *outbox) error {
		student, company, err := loadPair(ctx, tx, actor, pair)
		if err != nil {
			return err
		}
		if err := checkFrozen(actor, company); err != nil {
			return err
		}

		if _, err := tx.GetShortlist(ctx, pair); err == nil {
			return ErrAlreadyShortlisted
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		record := &model.ShortlistRecord{
			StudentID: student.ID,
			CompanyID: company.ID,
			Status:    status,
		}
		if student.IsPlaced {
			record.IsStudentPlaced = true
			record.StudentPlacedCompanyName = student.PlacedCompanyName
		}
		if err := tx.CreateShortlist(ctx, record); err != nil {
			return err
		}

		out.add(shortlistEvent(realtime.EventShortlistAdded, record, student, company))
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveFromShortlist deletes a pair that has never been offered.
func (e *Engine) RemoveFromShortlist(ctx context.Context, actor Actor, pair Pair) error {
	return e.run(ctx, "RemoveFromShortlist", actor, pairAttrs(pair), func(ctx context.Context, tx Tx, out *outbox) error {
		student, company, err := loadPair(ctx, tx, actor, pair)
		if err != nil {
			return err
		}
		if err := checkFrozen(actor, company); err != nil {
			return err
		}

		record, err := tx.GetShortlist(ctx, pair)
		if err != nil {
			return err
		}
		if record.IsOffered {
			return ErrShortlistOffered
		}
		if err := tx.DeleteShortlist(ctx, record.ID); err != nil {
			return err
		}

		out.add(shortlistEvent(realtime.EventShortlistRemoved, record, student, company))
		return nil
	})
}
