package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuditRepository is a mock implementation of AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) FindOvercommittedEvents(ctx context.Context) ([]repository.EventOvercommit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.EventOvercommit), args.Error(1)
}

func (m *MockAuditRepository) FindOvercommittedResources(ctx context.Context, from time.Time) ([]repository.ResourceOvercommit, error) {
	args := m.Called(ctx, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ResourceOvercommit), args.Error(1)
}

var auditNow = time.Date(2024, 4, 10, 13, 30, 0, 0, time.UTC)

func newTestAuditor(repo repository.AuditRepository, cfg *CapacityAuditorConfig) *CapacityAuditor {
	w := NewCapacityAuditor(repo, cfg)
	w.now = func() time.Time { return auditNow }
	return w
}

func TestCapacityAuditor_RunOnceReportsViolations(t *testing.T) {
	today := domain.DateOf(auditNow)
	repo := new(MockAuditRepository)
	repo.On("FindOvercommittedEvents", mock.Anything).Return([]repository.EventOvercommit{
		{EventID: "ev-1", Capacity: 3, Accepted: 4},
	}, nil)
	repo.On("FindOvercommittedResources", mock.Anything, today).Return([]repository.ResourceOvercommit{
		{ResourceID: "projector", Date: today.AddDate(0, 0, 2), TotalCount: 10, Allocated: 12},
		{ResourceID: "projector", Date: today.AddDate(0, 0, 45), TotalCount: 10, Allocated: 11},
	}, nil)

	w := newTestAuditor(repo, &CapacityAuditorConfig{Schedule: "@every 1h", HorizonDays: 30})

	report, err := w.RunOnce(context.Background())

	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.Len(t, report.Events, 1)
	require.Len(t, report.Resources, 1, "dates beyond the horizon are skipped")
	assert.Equal(t, 12, report.Resources[0].Allocated)

	stats := w.GetStats()
	assert.Equal(t, int64(1), stats.TotalRuns)
	assert.Equal(t, 2, stats.LastViolations)
	assert.Equal(t, auditNow, stats.LastRunTime)
	repo.AssertExpectations(t)
}

func TestCapacityAuditor_RunOnceFailure(t *testing.T) {
	repo := new(MockAuditRepository)
	repo.On("FindOvercommittedEvents", mock.Anything).Return(nil, errors.New("connection refused"))

	w := newTestAuditor(repo, nil)

	_, err := w.RunOnce(context.Background())

	assert.Error(t, err)
	stats := w.GetStats()
	assert.Equal(t, int64(1), stats.TotalFailures)
	repo.AssertNotCalled(t, "FindOvercommittedResources", mock.Anything, mock.Anything)
}

func TestCapacityAuditor_CleanAgainstMemoryStore(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.CreateEvent(ctx, &domain.BaseEvent{
		ID: "ev-1", Date: domain.DateOf(auditNow), StartTime: time.Hour, EndTime: 2 * time.Hour, Capacity: 1, IsApproved: true,
	}))
	require.NoError(t, store.InsertRSVP(ctx, &domain.EventRSVP{EventID: "ev-1", UserID: "u1", Status: domain.RSVPAccepted}))

	report, err := newTestAuditor(store, nil).RunOnce(ctx)

	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestCapacityAuditor_StartStop(t *testing.T) {
	repo := new(MockAuditRepository)
	repo.On("FindOvercommittedEvents", mock.Anything).Return([]repository.EventOvercommit{}, nil)
	repo.On("FindOvercommittedResources", mock.Anything, mock.Anything).Return([]repository.ResourceOvercommit{}, nil)

	w := newTestAuditor(repo, &CapacityAuditorConfig{Schedule: "@every 1h", RunOnStart: true})

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "second start is rejected")
	assert.True(t, w.GetStats().IsRunning)

	assert.Eventually(t, func() bool { return w.GetStats().TotalRuns == 1 }, time.Second, 10*time.Millisecond)

	w.Stop()
	assert.False(t, w.GetStats().IsRunning)
	w.Stop()
}

func TestCapacityAuditor_InvalidSchedule(t *testing.T) {
	w := newTestAuditor(new(MockAuditRepository), &CapacityAuditorConfig{Schedule: "every now and then"})

	err := w.Start(context.Background())

	assert.Error(t, err)
	assert.False(t, w.GetStats().IsRunning)
}
