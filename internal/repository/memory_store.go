package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
)

type pairKey struct {
	a, b string
}

type memoryData struct {
	events      map[string]domain.BaseEvent
	rsvps       map[pairKey]domain.EventRSVP
	resources   map[string]domain.Resource
	allocations map[pairKey]domain.EventResourceAllocation
}

func newMemoryData() *memoryData {
	return &memoryData{
		events:      make(map[string]domain.BaseEvent),
		rsvps:       make(map[pairKey]domain.EventRSVP),
		resources:   make(map[string]domain.Resource),
		allocations: make(map[pairKey]domain.EventResourceAllocation),
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		events:      make(map[string]domain.BaseEvent, len(d.events)),
		rsvps:       make(map[pairKey]domain.EventRSVP, len(d.rsvps)),
		resources:   make(map[string]domain.Resource, len(d.resources)),
		allocations: make(map[pairKey]domain.EventResourceAllocation, len(d.allocations)),
	}
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.rsvps {
		c.rsvps[k] = v
	}
	for k, v := range d.resources {
		c.resources[k] = v
	}
	for k, v := range d.allocations {
		c.allocations[k] = v
	}
	return c
}

// MemoryStore implements Store in process memory. Transactions are
// serialized and run against a private copy that replaces the committed
// state on success, so readers never observe a partial write.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *memoryData
	now  func() time.Time
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: newMemoryData(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx runs fn against a snapshot and commits it when fn returns nil
func (s *MemoryStore) WithinTx(ctx context.Context, fn TxFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &memoryTx{data: snapshot, now: s.now}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
	return nil
}

// HealthCheck always succeeds
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) read() *memoryTx {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &memoryTx{data: s.data, now: s.now}
}

func (s *MemoryStore) write(ctx context.Context, fn func(tx *memoryTx) error) error {
	return s.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		return fn(repos.(*memoryTx))
	})
}

// Reads go straight to the committed state. Committed maps are never mutated
// in place, only swapped, so holding a reference after RUnlock is safe.

func (s *MemoryStore) CreateEvent(ctx context.Context, event *domain.BaseEvent) error {
	return s.write(ctx, func(tx *memoryTx) error { return tx.CreateEvent(ctx, event) })
}

func (s *MemoryStore) GetEvent(ctx context.Context, id string) (*domain.BaseEvent, error) {
	return s.read().GetEvent(ctx, id)
}

func (s *MemoryStore) GetEventForUpdate(ctx context.Context, id string) (*domain.BaseEvent, error) {
	return s.read().GetEvent(ctx, id)
}

func (s *MemoryStore) SetApproved(ctx context.Context, id string, approved bool) error {
	return s.write(ctx, func(tx *memoryTx) error { return tx.SetApproved(ctx, id, approved) })
}

func (s *MemoryStore) CountAccepted(ctx context.Context, eventID string) (int, error) {
	return s.read().CountAccepted(ctx, eventID)
}

func (s *MemoryStore) GetRSVP(ctx context.Context, eventID, userID string) (*domain.EventRSVP, error) {
	return s.read().GetRSVP(ctx, eventID, userID)
}

func (s *MemoryStore) InsertRSVP(ctx context.Context, rsvp *domain.EventRSVP) error {
	return s.write(ctx, func(tx *memoryTx) error { return tx.InsertRSVP(ctx, rsvp) })
}

func (s *MemoryStore) UpdateRSVP(ctx context.Context, rsvp *domain.EventRSVP) error {
	return s.write(ctx, func(tx *memoryTx) error { return tx.UpdateRSVP(ctx, rsvp) })
}

func (s *MemoryStore) ListRSVPs(ctx context.Context, eventID string) ([]*domain.EventRSVP, error) {
	return s.read().ListRSVPs(ctx, eventID)
}

func (s *MemoryStore) CreateResource(ctx context.Context, resource *domain.Resource) error {
	return s.write(ctx, func(tx *memoryTx) error { return tx.CreateResource(ctx, resource) })
}

func (s *MemoryStore) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	return s.read().GetResource(ctx, id)
}

func (s *MemoryStore) GetResourceForUpdate(ctx context.Context, id string) (*domain.Resource, error) {
	return s.read().GetResource(ctx, id)
}

func (s *MemoryStore) ListApprovedForDate(ctx context.Context, resourceID string, date time.Time) ([]domain.EventResourceAllocation, error) {
	return s.read().ListApprovedForDate(ctx, resourceID, date)
}

func (s *MemoryStore) GetAllocation(ctx context.Context, eventID, resourceID string) (*domain.EventResourceAllocation, error) {
	return s.read().GetAllocation(ctx, eventID, resourceID)
}

func (s *MemoryStore) InsertAllocation(ctx context.Context, alloc *domain.EventResourceAllocation) error {
	return s.write(ctx, func(tx *memoryTx) error { return tx.InsertAllocation(ctx, alloc) })
}

func (s *MemoryStore) UpdateAllocation(ctx context.Context, alloc *domain.EventResourceAllocation) error {
	return s.write(ctx, func(tx *memoryTx) error { return tx.UpdateAllocation(ctx, alloc) })
}

func (s *MemoryStore) ListAllocations(ctx context.Context, eventID string) ([]*domain.EventResourceAllocation, error) {
	return s.read().ListAllocations(ctx, eventID)
}

// FindOvercommittedEvents scans committed state for capacity violations
func (s *MemoryStore) FindOvercommittedEvents(ctx context.Context) ([]EventOvercommit, error) {
	d := s.read().data

	accepted := make(map[string]int)
	for _, r := range d.rsvps {
		if r.Status == domain.RSVPAccepted {
			accepted[r.EventID]++
		}
	}

	out := make([]EventOvercommit, 0)
	for id, n := range accepted {
		e, ok := d.events[id]
		if ok && n > e.Capacity {
			out = append(out, EventOvercommit{EventID: id, Capacity: e.Capacity, Accepted: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

// FindOvercommittedResources scans committed state for pool violations
func (s *MemoryStore) FindOvercommittedResources(ctx context.Context, from time.Time) ([]ResourceOvercommit, error) {
	d := s.read().data
	day := domain.DateOf(from)

	type poolKey struct {
		resourceID string
		date       time.Time
	}
	sums := make(map[poolKey]int)
	for _, a := range d.allocations {
		if a.Status != domain.AllocationApproved || a.EventDate.Before(day) {
			continue
		}
		sums[poolKey{a.ResourceID, domain.DateOf(a.EventDate)}] += a.QuantityNeeded
	}

	out := make([]ResourceOvercommit, 0)
	for k, sum := range sums {
		r, ok := d.resources[k.resourceID]
		if ok && sum > r.TotalCount {
			out = append(out, ResourceOvercommit{ResourceID: k.resourceID, Date: k.date, TotalCount: r.TotalCount, Allocated: sum})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ResourceID < out[j].ResourceID
	})
	return out, nil
}

// memoryTx operates on one memoryData without locking. The caller owns
// synchronization.
type memoryTx struct {
	data *memoryData
	now  func() time.Time
}

func (t *memoryTx) CreateEvent(ctx context.Context, event *domain.BaseEvent) error {
	if _, ok := t.data.events[event.ID]; ok {
		return domain.ErrAlreadyExists
	}
	now := t.now()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	stored := *event
	stored.Date = domain.DateOf(event.Date)
	stored.RecurrenceEnd = copyDate(event.RecurrenceEnd)
	t.data.events[event.ID] = stored
	return nil
}

func (t *memoryTx) GetEvent(ctx context.Context, id string) (*domain.BaseEvent, error) {
	e, ok := t.data.events[id]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	e.RecurrenceEnd = copyDate(e.RecurrenceEnd)
	return &e, nil
}

func (t *memoryTx) GetEventForUpdate(ctx context.Context, id string) (*domain.BaseEvent, error) {
	return t.GetEvent(ctx, id)
}

func (t *memoryTx) SetApproved(ctx context.Context, id string, approved bool) error {
	e, ok := t.data.events[id]
	if !ok {
		return domain.ErrEventNotFound
	}
	e.IsApproved = approved
	e.UpdatedAt = t.now()
	t.data.events[id] = e
	return nil
}

func (t *memoryTx) CountAccepted(ctx context.Context, eventID string) (int, error) {
	n := 0
	for k, r := range t.data.rsvps {
		if k.a == eventID && r.Status == domain.RSVPAccepted {
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) GetRSVP(ctx context.Context, eventID, userID string) (*domain.EventRSVP, error) {
	r, ok := t.data.rsvps[pairKey{eventID, userID}]
	if !ok {
		return nil, domain.ErrRSVPNotFound
	}
	return &r, nil
}

func (t *memoryTx) InsertRSVP(ctx context.Context, rsvp *domain.EventRSVP) error {
	key := pairKey{rsvp.EventID, rsvp.UserID}
	if _, ok := t.data.rsvps[key]; ok {
		return domain.ErrAlreadyExists
	}
	if rsvp.RespondedAt.IsZero() {
		rsvp.RespondedAt = t.now()
	}
	t.data.rsvps[key] = *rsvp
	return nil
}

func (t *memoryTx) UpdateRSVP(ctx context.Context, rsvp *domain.EventRSVP) error {
	key := pairKey{rsvp.EventID, rsvp.UserID}
	if _, ok := t.data.rsvps[key]; !ok {
		return domain.ErrRSVPNotFound
	}
	if rsvp.RespondedAt.IsZero() {
		rsvp.RespondedAt = t.now()
	}
	t.data.rsvps[key] = *rsvp
	return nil
}

func (t *memoryTx) ListRSVPs(ctx context.Context, eventID string) ([]*domain.EventRSVP, error) {
	out := make([]*domain.EventRSVP, 0)
	for k, r := range t.data.rsvps {
		if k.a == eventID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RespondedAt.Equal(out[j].RespondedAt) {
			return out[i].RespondedAt.Before(out[j].RespondedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (t *memoryTx) CreateResource(ctx context.Context, resource *domain.Resource) error {
	if _, ok := t.data.resources[resource.ID]; ok {
		return domain.ErrAlreadyExists
	}
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = t.now()
	}
	t.data.resources[resource.ID] = *resource
	return nil
}

func (t *memoryTx) GetResource(ctx context.Context, id string) (*domain.Resource, error) {
	r, ok := t.data.resources[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return &r, nil
}

func (t *memoryTx) GetResourceForUpdate(ctx context.Context, id string) (*domain.Resource, error) {
	return t.GetResource(ctx, id)
}

func (t *memoryTx) ListApprovedForDate(ctx context.Context, resourceID string, date time.Time) ([]domain.EventResourceAllocation, error) {
	out := make([]domain.EventResourceAllocation, 0)
	for k, a := range t.data.allocations {
		if k.b == resourceID && a.Status == domain.AllocationApproved && domain.SameDate(a.EventDate, date) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
	return out, nil
}

func (t *memoryTx) GetAllocation(ctx context.Context, eventID, resourceID string) (*domain.EventResourceAllocation, error) {
	a, ok := t.data.allocations[pairKey{eventID, resourceID}]
	if !ok {
		return nil, domain.ErrAllocationNotFound
	}
	return &a, nil
}

func (t *memoryTx) InsertAllocation(ctx context.Context, alloc *domain.EventResourceAllocation) error {
	key := pairKey{alloc.EventID, alloc.ResourceID}
	if _, ok := t.data.allocations[key]; ok {
		return domain.ErrAlreadyExists
	}
	alloc.UpdatedAt = t.now()
	stored := *alloc
	stored.EventDate = domain.DateOf(alloc.EventDate)
	t.data.allocations[key] = stored
	return nil
}

func (t *memoryTx) UpdateAllocation(ctx context.Context, alloc *domain.EventResourceAllocation) error {
	key := pairKey{alloc.EventID, alloc.ResourceID}
	if _, ok := t.data.allocations[key]; !ok {
		return domain.ErrAllocationNotFound
	}
	alloc.UpdatedAt = t.now()
	stored := *alloc
	stored.EventDate = domain.DateOf(alloc.EventDate)
	t.data.allocations[key] = stored
	return nil
}

func (t *memoryTx) ListAllocations(ctx context.Context, eventID string) ([]*domain.EventResourceAllocation, error) {
	out := make([]*domain.EventResourceAllocation, 0)
	for k, a := range t.data.allocations {
		if k.a == eventID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceID < out[j].ResourceID })
	return out, nil
}

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := domain.DateOf(*t)
	return &d
}
