package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/pkg/retry"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

// MockDecisionPublisher records published decisions
type MockDecisionPublisher struct {
	mu          sync.Mutex
	rsvps       []publishedDecision
	allocations []publishedDecision
	approvals   []string
	err         error
}

type publishedDecision struct {
	EventID string
	Subject string
	Outcome string
	Status  string
	Reason  string
}

func NewMockDecisionPublisher() *MockDecisionPublisher {
	return &MockDecisionPublisher{}
}

func (m *MockDecisionPublisher) PublishRSVPDecided(ctx context.Context, rsvp *domain.EventRSVP, outcome, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rsvps = append(m.rsvps, publishedDecision{rsvp.EventID, rsvp.UserID, outcome, string(rsvp.Status), reason})
	return m.err
}

func (m *MockDecisionPublisher) PublishAllocationDecided(ctx context.Context, alloc *domain.EventResourceAllocation, outcome, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations = append(m.allocations, publishedDecision{alloc.EventID, alloc.ResourceID, outcome, string(alloc.Status), reason})
	return m.err
}

func (m *MockDecisionPublisher) PublishEventApproved(ctx context.Context, event *domain.BaseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.approvals = append(m.approvals, event.ID)
	return m.err
}

func (m *MockDecisionPublisher) Close() error { return nil }

func (m *MockDecisionPublisher) RSVPs() []publishedDecision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedDecision(nil), m.rsvps...)
}

func (m *MockDecisionPublisher) Allocations() []publishedDecision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedDecision(nil), m.allocations...)
}

// flakyStore fails the first n transactions with a serialization error
type flakyStore struct {
	repository.Store
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyStore) WithinTx(ctx context.Context, fn repository.TxFunc) error {
	f.mu.Lock()
	f.calls++
	fail := f.failures > 0
	if fail {
		f.failures--
	}
	f.mu.Unlock()

	if fail {
		return domain.NewStorageError("commit tx", &pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	}
	return f.Store.WithinTx(ctx, fn)
}

func fastAdmission() *AdmissionConfig {
	return &AdmissionConfig{
		LockTTL: time.Second,
		Retry: &retry.Config{
			MaxRetries:      3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Multiplier:      2,
		},
	}
}

func seedEvent(t *testing.T, store repository.Store, id string, capacity int, approved bool) *domain.BaseEvent {
	t.Helper()
	e := &domain.BaseEvent{
		ID:         id,
		Title:      "Hackathon " + id,
		Date:       anchor,
		StartTime:  9 * time.Hour,
		EndTime:    17 * time.Hour,
		Capacity:   capacity,
		IsApproved: approved,
	}
	require.NoError(t, store.CreateEvent(context.Background(), e))
	return e
}

func seedResource(t *testing.T, store repository.Store, id string, total int) {
	t.Helper()
	require.NoError(t, store.CreateResource(context.Background(), &domain.Resource{ID: id, Name: id, TotalCount: total}))
}
