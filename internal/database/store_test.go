package database

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
	"live-placement-backend/internal/workflow"
)

type recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *recorder) Publish(ev realtime.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return len(ev.Rooms)
}

func (r *recorder) names() []realtime.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]realtime.EventName, 0, len(r.events))
	for _, ev := range r.events {
		names = append(names, ev.Name)
	}
	return names
}

func newEngine() (*workflow.Engine, *recorder) {
	rec := &recorder{}
	return workflow.NewEngine(NewStore(testDB), rec), rec
}

func mustStudent(t *testing.T, name string) model.Student {
	t.Helper()
	s, err := NewTestStudent(testDB, name)
	require.NoError(t, err)
	return s
}

func mustCompany(t *testing.T, name string, rounds int, pocs ...string) model.Company {
	t.Helper()
	c, err := NewTestCompany(testDB, name, rounds, pocs...)
	require.NoError(t, err)
	return c
}

func TestStore_LockStudentNotFound(t *testing.T) {
	store := NewStore(testDB)
	err := store.Atomic(context.Background(), func(tx workflow.Tx) error {
		_, err := tx.LockStudent(context.Background(), uuid.New())
		return err
	})
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestStore_AtomicRollback(t *testing.T) {
	store := NewStore(testDB)
	student := mustStudent(t, "Rollback Student")
	boom := errors.New("boom")

	err := store.Atomic(context.Background(), func(tx workflow.Tx) error {
		s, err := tx.LockStudent(context.Background(), student.ID)
		if err != nil {
			return err
		}
		s.Name = "Changed"
		if err := tx.SaveStudent(context.Background(), s); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var reloaded model.Student
	require.NoError(t, testDB.First(&reloaded, "id = ?", student.ID).Error)
	assert.Equal(t, "Rollback Student", reloaded.Name)
}

func TestStore_DuplicatePairs(t *testing.T) {
	store := NewStore(testDB)
	ctx := context.Background()
	student := mustStudent(t, "Duplicate Student")
	company := mustCompany(t, "Duplicate Co", 2)

	var recordID uuid.UUID
	require.NoError(t, store.Atomic(ctx, func(tx workflow.Tx) error {
		r := &model.ShortlistRecord{StudentID: student.ID, CompanyID: company.ID}
		if err := tx.CreateShortlist(ctx, r); err != nil {
			return err
		}
		recordID = r.ID
		return tx.CreateOffer(ctx, &model.OfferRecord{StudentID: student.ID, CompanyID: company.ID, ShortlistID: r.ID})
	}))

	err := store.Atomic(ctx, func(tx workflow.Tx) error {
		return tx.CreateShortlist(ctx, &model.ShortlistRecord{StudentID: student.ID, CompanyID: company.ID})
	})
	assert.ErrorIs(t, err, workflow.ErrAlreadyShortlisted)

	err = store.Atomic(ctx, func(tx workflow.Tx) error {
		return tx.CreateOffer(ctx, &model.OfferRecord{StudentID: student.ID, CompanyID: company.ID, ShortlistID: recordID})
	})
	assert.ErrorIs(t, err, workflow.ErrOfferExists)
}

func TestStore_ListShortlistsByStudent(t *testing.T) {
	store := NewStore(testDB)
	ctx := context.Background()
	student := mustStudent(t, "Listed Student")
	first := mustCompany(t, "List Co 1", 1)
	second := mustCompany(t, "List Co 2", 3)

	var records []model.ShortlistRecord
	require.NoError(t, store.Atomic(ctx, func(tx workflow.Tx) error {
		for _, c := range []model.Company{first, second} {
			if err := tx.CreateShortlist(ctx, &model.ShortlistRecord{StudentID: student.ID, CompanyID: c.ID}); err != nil {
				return err
			}
		}
		var err error
		records, err = tx.ListShortlistsByStudent(ctx, student.ID)
		return err
	}))
	require.Len(t, records, 2)
	assert.Equal(t, model.ShortlistStatusShortlisted, records[0].Status)
	assert.Nil(t, records[0].Stage)
}

func TestEngine_StageLifecycle(t *testing.T) {
	engine, rec := newEngine()
	ctx := context.Background()
	student := mustStudent(t, "Lifecycle Student")
	company := mustCompany(t, "Lifecycle Co", 2, "poc-lifecycle")
	poc := workflow.POC("poc-lifecycle", company.ID)
	pair := workflow.Pair{StudentID: student.ID, CompanyID: company.ID}

	_, err := engine.AddToShortlist(ctx, poc, pair, "")
	require.NoError(t, err)

	_, err = engine.AdvanceStage(ctx, poc, pair, model.StageR2)
	require.NoError(t, err)

	_, err = engine.AdvanceStage(ctx, poc, pair, model.StageR3)
	assert.ErrorIs(t, err, workflow.ErrInvalidStage)

	record, err := engine.AdvanceStage(ctx, poc, pair, model.StageRejected)
	require.NoError(t, err)
	assert.Equal(t, model.StageR2, record.PreviousStageValue())

	record, err = engine.UndoRejection(ctx, poc, pair)
	require.NoError(t, err)
	assert.Equal(t, model.StageR2, record.CurrentStage())
	assert.Nil(t, record.PreviousStage)

	offer, err := engine.CreateOffer(ctx, poc, pair)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, offer.ApprovalStatus)

	require.NoError(t, engine.RevertOffer(ctx, poc, pair))

	var reloaded model.ShortlistRecord
	require.NoError(t, testDB.First(&reloaded, "student_id = ? AND company_id = ?", student.ID, company.ID).Error)
	assert.Equal(t, model.StageR2, reloaded.CurrentStage())
	assert.False(t, reloaded.IsOffered)

	var offers int64
	require.NoError(t, testDB.Model(&model.OfferRecord{}).Where("student_id = ?", student.ID).Count(&offers).Error)
	assert.Zero(t, offers)

	assert.Equal(t, []realtime.EventName{
		realtime.EventShortlistAdded,
		realtime.EventShortlistUpdate,
		realtime.EventShortlistUpdate,
		realtime.EventShortlistUpdate,
		realtime.EventOfferCreated,
		realtime.EventOfferReverted,
	}, rec.names())
}

func TestEngine_ConcurrentApprovalsPlaceOnce(t *testing.T) {
	engine, _ := newEngine()
	ctx := context.Background()
	student := mustStudent(t, "Contested Student")
	admin := workflow.Admin("admin-concurrent")

	companies := []model.Company{
		mustCompany(t, "Race Co 1", 1),
		mustCompany(t, "Race Co 2", 1),
		mustCompany(t, "Race Co 3", 1),
	}
	offerIDs := make([]uuid.UUID, 0, len(companies))
	for _, c := range companies {
		pair := workflow.Pair{StudentID: student.ID, CompanyID: c.ID}
		_, err := engine.AddToShortlist(ctx, admin, pair, "")
		require.NoError(t, err)
		offer, err := engine.CreateOffer(ctx, admin, pair)
		require.NoError(t, err)
		offerIDs = append(offerIDs, offer.ID)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(offerIDs))
	for i, id := range offerIDs {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = engine.DecideOffer(ctx, admin, id, workflow.DecisionApprove)
		}(i, id)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, workflow.ErrAlreadyPlaced)
	}
	assert.Equal(t, 1, winners)

	var placed model.Student
	require.NoError(t, testDB.First(&placed, "id = ?", student.ID).Error)
	require.True(t, placed.IsPlaced)

	var approved int64
	require.NoError(t, testDB.Model(&model.OfferRecord{}).
		Where("student_id = ? AND approval_status = ?", student.ID, model.ApprovalApproved).
		Count(&approved).Error)
	assert.EqualValues(t, 1, approved)

	var records []model.ShortlistRecord
	require.NoError(t, testDB.Where("student_id = ?", student.ID).Find(&records).Error)
	for _, r := range records {
		if r.CompanyID == *placed.PlacedCompanyID {
			continue
		}
		assert.True(t, r.IsStudentPlaced)
		assert.Equal(t, placed.PlacedCompanyName, r.StudentPlacedCompanyName)
	}
}

func TestEngine_ConcurrentCreateOfferOnce(t *testing.T) {
	engine, _ := newEngine()
	ctx := context.Background()
	student := mustStudent(t, "Offer Race Student")
	company := mustCompany(t, "Offer Race Co", 1, "poc-race")
	poc := workflow.POC("poc-race", company.ID)
	pair := workflow.Pair{StudentID: student.ID, CompanyID: company.ID}

	_, err := engine.AddToShortlist(ctx, poc, pair, "")
	require.NoError(t, err)

	const attempts = 5
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.CreateOffer(ctx, poc, pair)
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, workflow.ErrOfferExists)
	}
	assert.Equal(t, 1, created)
}

func TestEngine_ProcessFreeze(t *testing.T) {
	engine, rec := newEngine()
	ctx := context.Background()
	student := mustStudent(t, "Frozen Student")
	company := mustCompany(t, "Frozen Co", 3, "poc-frozen")
	poc := workflow.POC("poc-frozen", company.ID)
	admin := workflow.Admin(TestAdminID)
	pair := workflow.Pair{StudentID: student.ID, CompanyID: company.ID}

	_, err := engine.AddToShortlist(ctx, poc, pair, model.ShortlistStatusWaitlisted)
	require.NoError(t, err)

	_, err = engine.SetProcessCompleted(ctx, poc, company.ID, true)
	assert.ErrorIs(t, err, workflow.ErrForbidden)

	updated, err := engine.SetProcessCompleted(ctx, admin, company.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsProcessCompleted)

	_, err = engine.AdvanceStage(ctx, poc, pair, model.StageR1)
	assert.ErrorIs(t, err, workflow.ErrProcessFrozen)

	_, err = engine.AdvanceStage(ctx, admin, pair, model.StageR1)
	assert.NoError(t, err)

	assert.Contains(t, rec.names(), realtime.EventProcessChanged)
}

func TestEngine_POCMutationWaitsForFreeze(t *testing.T) {
	engine, _ := newEngine()
	store := NewStore(testDB)
	ctx := context.Background()
	student := mustStudent(t, "Racing Student")
	company := mustCompany(t, "Racing Co", 3, "poc-racing")
	poc := workflow.POC("poc-racing", company.ID)
	pair := workflow.Pair{StudentID: student.ID, CompanyID: company.ID}

	_, err := engine.AddToShortlist(ctx, poc, pair, "")
	require.NoError(t, err)

	locked := make(chan struct{})
	release := make(chan struct{})
	freezeDone := make(chan error, 1)
	go func() {
		freezeDone <- store.Atomic(ctx, func(tx workflow.Tx) error {
			c, err := tx.LockCompany(ctx, company.ID)
			if err != nil {
				return err
			}
			c.IsProcessCompleted = true
			if err := tx.SaveCompany(ctx, c); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	advanceDone := make(chan error, 1)
	go func() {
		_, err := engine.AdvanceStage(ctx, poc, pair, model.StageR1)
		advanceDone <- err
	}()

	select {
	case err := <-advanceDone:
		t.Fatalf("advance finished while the freeze was in flight: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-freezeDone)
	assert.ErrorIs(t, <-advanceDone, workflow.ErrProcessFrozen)

	var record model.ShortlistRecord
	require.NoError(t, testDB.Where("student_id = ? AND company_id = ?", student.ID, company.ID).First(&record).Error)
	assert.Nil(t, record.Stage)
}

func TestEngine_FreezeWaitsForPOCMutation(t *testing.T) {
	engine, _ := newEngine()
	store := NewStore(testDB)
	ctx := context.Background()
	company := mustCompany(t, "Busy Co", 2, "poc-busy")
	admin := workflow.Admin(TestAdminID)

	shared := make(chan struct{})
	release := make(chan struct{})
	mutationDone := make(chan error, 1)
	go func() {
		mutationDone <- store.Atomic(ctx, func(tx workflow.Tx) error {
			if _, err := tx.ShareCompany(ctx, company.ID); err != nil {
				return err
			}
			close(shared)
			<-release
			return nil
		})
	}()
	<-shared

	freezeDone := make(chan error, 1)
	go func() {
		_, err := engine.SetProcessCompleted(ctx, admin, company.ID, true)
		freezeDone <- err
	}()

	select {
	case err := <-freezeDone:
		t.Fatalf("freeze finished while a mutation held the company: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-mutationDone)
	require.NoError(t, <-freezeDone)
}
