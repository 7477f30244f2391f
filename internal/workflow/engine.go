// Package workflow enforces the placement workflow rules over the State Store
// and publishes a change event after every committed mutation.
package workflow

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
)

const tracerName = "live-placement-backend/internal/workflow"

// Engine holds no state of its own. Every operation is one Store.Atomic unit
// and events are published only once that unit has committed.
type Engine struct {
	store  Store
	bus    realtime.Publisher
	now    func() time.Time
	tracer trace.Tracer
}

// NewEngine creates an engine over store publishing to bus.
func NewEngine(store Store, bus realtime.Publisher) *Engine {
	return &Engine{
		store:  store,
		bus:    bus,
		now:    time.Now,
		tracer: otel.Tracer(tracerName),
	}
}

// outbox collects the events of one unit of work until it commits.
type outbox struct {
	events []realtime.Event
}

func (o *outbox) add(ev realtime.Event) {
	o.events = append(o.events, ev)
}

func (e *Engine) run(ctx context.Context, op string, actor Actor, attrs []attribute.KeyValue, fn func(ctx context.Context, tx Tx, out *outbox) error) error {
	ctx, span := e.tracer.Start(ctx, "workflow."+op, trace.WithAttributes(attrs...))
	defer span.End()
	span.SetAttributes(attribute.String("workflow.actor", actor.ID()), attribute.Bool("workflow.actor_unscoped", actor.Unscoped()))

	out := &outbox{}
	err := e.store.Atomic(ctx, func(tx Tx) error {
		out.events = out.events[:0]
		return fn(ctx, tx, out)
	})
	if err != nil {
		if CodeOf(err) == "" {
			err = StoreFailure(err)
		}
		span.SetAttributes(attribute.String("workflow.error_code", string(CodeOf(err))))
		if !IsDomain(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}

	for _, ev := range out.events {
		e.bus.Publish(ev)
	}
	span.SetAttributes(attribute.Int("workflow.events", len(out.events)))
	return nil
}

func pairAttrs(pair Pair) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("workflow.student_id", pair.StudentID.String()),
		attribute.String("workflow.company_id", pair.CompanyID.String()),
	}
}

// loadPair locks the student and share-locks the company the actor wants to
// act on, so the freeze check holds until commit.
func loadPair(ctx context.Context, tx Tx, actor Actor, pair Pair) (*model.Student, *model.Company, error) {
	student, err := tx.LockStudent(ctx, pair.StudentID)
	if err != nil {
		return nil, nil, err
	}
	company, err := tx.ShareCompany(ctx, pair.CompanyID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.Covers(company.ID) {
		return nil, nil, ErrForbidden
	}
	return student, company, nil
}

func checkFrozen(actor Actor, company *model.Company) error {
	if company.IsProcessCompleted && !actor.FreezeExempt() {
		return ErrProcessFrozen
	}
	return nil
}

func shortlistEvent(name realtime.EventName, record *model.ShortlistRecord, student *model.Student, company *model.Company) realtime.Event {
	shortlistID := record.ID
	studentID := student.ID
	return realtime.Event{
		Name:  name,
		Rooms: []realtime.Room{realtime.CompanyRoom(company.ID), realtime.StudentRoom(student.ID)},
		Payload: realtime.Payload{
			ShortlistID: &shortlistID,
			CompanyID:   company.ID,
			StudentID:   &studentID,
			CompanyName: company.Name,
			StudentName: student.Name,
			Stage:       string(record.CurrentStage()),
		},
	}
}

func offerEvent(name realtime.EventName, offer *model.OfferRecord, student *model.Student, company *model.Company) realtime.Event {
	offerID := offer.ID
	shortlistID := offer.ShortlistID
	studentID := student.ID
	return realtime.Event{
		Name: name,
		Rooms: []realtime.Room{
			realtime.CompanyRoom(company.ID),
			realtime.StudentRoom(student.ID),
			realtime.AdminRoom,
		},
		Payload: realtime.Payload{
			ShortlistID: &shortlistID,
			OfferID:     &offerID,
			CompanyID:   company.ID,
			StudentID:   &studentID,
			CompanyName: company.Name,
			StudentName: student.Name,
		},
	}
}
