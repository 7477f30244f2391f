package workflow

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
)

// SetProcessCompleted freezes or unfreezes POC-side changes for a company.
func (e *Engine) SetProcessCompleted(ctx context.Context, actor Actor, companyID uuid.UUID, completed bool) (*model.Company, error) {
	if !actor.Unscoped() {
		return nil, newError(CodeForbidden, "only an administrator can change a company process")
	}

	attrs := []attribute.KeyValue{
		attribute.String("workflow.company_id", companyID.String()),
		attribute.Bool("workflow.completed", completed),
	}
	var result *model.Company
	err := e.run(ctx, "SetProcessCompleted", actor, attrs, func(ctx context.Context, tx Tx, out *outbox) error {
		company, err := tx.LockCompany(ctx, companyID)
		if err != nil {
			return err
		}
		result = company
		if company.IsProcessCompleted == completed {
			return nil
		}

		company.IsProcessCompleted = completed
		if err := tx.SaveCompany(ctx, company); err != nil {
			return err
		}

		state := completed
		out.add(realtime.Event{
			Name:  realtime.EventProcessChanged,
			Rooms: []realtime.Room{realtime.POCRoom, realtime.AdminRoom, realtime.CompanyRoom(company.ID)},
			Payload: realtime.Payload{
				CompanyID:        company.ID,
				CompanyName:      company.Name,
				ProcessCompleted: &state,
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
