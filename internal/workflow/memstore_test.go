package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"live-placement-backend/internal/model"
	"live-placement-backend/internal/realtime"
)

// memState is a snapshot of every table.
type memState struct {
	students   map[uuid.UUID]model.Student
	companies  map[uuid.UUID]model.Company
	shortlists map[uuid.UUID]model.ShortlistRecord
	offers     map[uuid.UUID]model.OfferRecord
}

func (s memState) clone() memState {
	c := memState{
		students:   make(map[uuid.UUID]model.Student, len(s.students)),
		companies:  make(map[uuid.UUID]model.Company, len(s.companies)),
		shortlists: make(map[uuid.UUID]model.ShortlistRecord, len(s.shortlists)),
		offers:     make(map[uuid.UUID]model.OfferRecord, len(s.offers)),
	}
	for k, v := range s.students {
		c.students[k] = v
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.shortlists {
		c.shortlists[k] = v
	}
	for k, v := range s.offers {
		c.offers[k] = v
	}
	return c
}

// memStore serializes units of work and commits a unit by swapping in its copy.
type memStore struct {
	mu    sync.Mutex
	state memState
	// failNext makes the next Atomic fail after fn ran
	failNext error
}

func newMemStore() *memStore {
	return &memStore{state: memState{}.clone()}
}

func (m *memStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{state: work}); err != nil {
		return err
	}
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) addCompany(name string, rounds int, pocs ...string) model.Company {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := model.Company{ID: uuid.New(), Name: name, MaxRounds: rounds, POCIDs: pocs}
	m.state.companies[c.ID] = c
	return c
}

func (m *memStore) addStudent(name string) model.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := model.Student{ID: uuid.New(), Name: name}
	m.state.students[s.ID] = s
	return s
}

func (m *memStore) student(id uuid.UUID) model.Student {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.students[id]
}

func (m *memStore) shortlist(pair Pair) (model.ShortlistRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.state.shortlists {
		if r.StudentID == pair.StudentID && r.CompanyID == pair.CompanyID {
			return r, true
		}
	}
	return model.ShortlistRecord{}, false
}

func (m *memStore) offers(pair Pair) []model.OfferRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OfferRecord
	for _, o := range m.state.offers {
		if o.StudentID == pair.StudentID && o.CompanyID == pair.CompanyID {
			out = append(out, o)
		}
	}
	return out
}

func (m *memStore) setOfferStatus(id uuid.UUID, status model.OfferStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.state.offers[id]
	o.OfferStatus = status
	m.state.offers[id] = o
}

type memTx struct {
	state memState
}

func (t *memTx) LockStudent(_ context.Context, id uuid.UUID) (*model.Student, error) {
	s, ok := t.state.students[id]
	if !ok {
		return nil, NotFound("student", nil)
	}
	return &s, nil
}

func (t *memTx) LockCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	return t.GetCompany(ctx, id)
}

func (t *memTx) ShareCompany(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	return t.GetCompany(ctx, id)
}

func (t *memTx) GetCompany(_ context.Context, id uuid.UUID) (*model.Company, error) {
	c, ok := t.state.companies[id]
	if !ok {
		return nil, NotFound("company", nil)
	}
	return &c, nil
}

func (t *memTx) SaveStudent(_ context.Context, s *model.Student) error {
	t.state.students[s.ID] = *s
	return nil
}

func (t *memTx) SaveCompany(_ context.Context, c *model.Company) error {
	t.state.companies[c.ID] = *c
	return nil
}

func (t *memTx) GetShortlist(_ context.Context, pair Pair) (*model.ShortlistRecord, error) {
	for _, r := range t.state.shortlists {
		if r.StudentID == pair.StudentID && r.CompanyID == pair.CompanyID {
			return &r, nil
		}
	}
	return nil, NotFound("shortlist record", nil)
}

func (t *memTx) ListShortlistsByStudent(_ context.Context, studentID uuid.UUID) ([]model.ShortlistRecord, error) {
	var out []model.ShortlistRecord
	for _, r := range t.state.shortlists {
		if r.StudentID == studentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *memTx) CreateShortlist(ctx context.Context, r *model.ShortlistRecord) error {
	if _, err := t.GetShortlist(ctx, Pair{StudentID: r.StudentID, CompanyID: r.CompanyID}); err == nil {
		return ErrAlreadyShortlisted
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	t.state.shortlists[r.ID] = *r
	return nil
}

func (t *memTx) SaveShortlist(_ context.Context, r *model.ShortlistRecord) error {
	t.state.shortlists[r.ID] = *r
	return nil
}

func (t *memTx) DeleteShortlist(_ context.Context, id uuid.UUID) error {
	delete(t.state.shortlists, id)
	return nil
}

func (t *memTx) GetOffer(_ context.Context, id uuid.UUID) (*model.OfferRecord, error) {
	o, ok := t.state.offers[id]
	if !ok {
		return nil, NotFound("offer", nil)
	}
	return &o, nil
}

func (t *memTx) FindOffer(_ context.Context, pair Pair) (*model.OfferRecord, error) {
	for _, o := range t.state.offers {
		if o.StudentID == pair.StudentID && o.CompanyID == pair.CompanyID {
			return &o, nil
		}
	}
	return nil, NotFound("offer", nil)
}

func (t *memTx) CreateOffer(ctx context.Context, o *model.OfferRecord) error {
	if _, err := t.FindOffer(ctx, Pair{StudentID: o.StudentID, CompanyID: o.CompanyID}); err == nil {
		return ErrOfferExists
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	t.state.offers[o.ID] = *o
	return nil
}

func (t *memTx) SaveOffer(_ context.Context, o *model.OfferRecord) error {
	t.state.offers[o.ID] = *o
	return nil
}

func (t *memTx) DeleteOffer(_ context.Context, id uuid.UUID) error {
	delete(t.state.offers, id)
	return nil
}

// busRecorder keeps every published event.
type busRecorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (b *busRecorder) Publish(ev realtime.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return len(ev.Rooms)
}

func (b *busRecorder) all() []realtime.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]realtime.Event(nil), b.events...)
}

func (b *busRecorder) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
