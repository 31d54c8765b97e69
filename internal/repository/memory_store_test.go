package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateEvent(ctx, &domain.BaseEvent{ID: "ev-1", Date: day, Capacity: 2, IsApproved: true}))
	require.NoError(t, s.CreateEvent(ctx, &domain.BaseEvent{ID: "ev-2", Date: day, Capacity: 1, IsApproved: true}))
	require.NoError(t, s.CreateResource(ctx, &domain.Resource{ID: "projector", TotalCount: 3}))
	return s
}

func TestMemoryStore_EventRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	e, err := s.GetEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 2, e.Capacity)
	assert.False(t, e.CreatedAt.IsZero())

	// Returned values are copies
	e.Capacity = 99
	again, _ := s.GetEvent(ctx, "ev-1")
	assert.Equal(t, 2, again.Capacity)

	require.NoError(t, s.SetApproved(ctx, "ev-1", false))
	again, _ = s.GetEvent(ctx, "ev-1")
	assert.False(t, again.IsApproved)

	_, err = s.GetEvent(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.ErrorIs(t, s.SetApproved(ctx, "missing", true), domain.ErrEventNotFound)
	assert.ErrorIs(t, s.CreateEvent(ctx, &domain.BaseEvent{ID: "ev-1"}), domain.ErrAlreadyExists)
}

func TestMemoryStore_RSVPs(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	require.NoError(t, s.InsertRSVP(ctx, &domain.EventRSVP{EventID: "ev-1", UserID: "u1", Status: domain.RSVPAccepted}))
	require.NoError(t, s.InsertRSVP(ctx, &domain.EventRSVP{EventID: "ev-1", UserID: "u2", Status: domain.RSVPDeclined}))
	require.NoError(t, s.InsertRSVP(ctx, &domain.EventRSVP{EventID: "ev-2", UserID: "u1", Status: domain.RSVPAccepted}))

	err := s.InsertRSVP(ctx, &domain.EventRSVP{EventID: "ev-1", UserID: "u1", Status: domain.RSVPDeclined})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	n, err := s.CountAccepted(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.UpdateRSVP(ctx, &domain.EventRSVP{EventID: "ev-1", UserID: "u2", Status: domain.RSVPAccepted}))
	n, _ = s.CountAccepted(ctx, "ev-1")
	assert.Equal(t, 2, n)

	assert.ErrorIs(t, s.UpdateRSVP(ctx, &domain.EventRSVP{EventID: "ev-1", UserID: "u9"}), domain.ErrRSVPNotFound)

	_, err = s.GetRSVP(ctx, "ev-1", "u9")
	assert.ErrorIs(t, err, domain.ErrRSVPNotFound)

	list, err := s.ListRSVPs(ctx, "ev-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMemoryStore_Allocations(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	require.NoError(t, s.InsertAllocation(ctx, &domain.EventResourceAllocation{
		EventID: "ev-1", ResourceID: "projector", EventDate: day.Add(9 * time.Hour), QuantityNeeded: 2, Status: domain.AllocationApproved,
	}))
	require.NoError(t, s.InsertAllocation(ctx, &domain.EventResourceAllocation{
		EventID: "ev-2", ResourceID: "projector", EventDate: day, QuantityNeeded: 1, Status: domain.AllocationPending,
	}))

	approved, err := s.ListApprovedForDate(ctx, "projector", day)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "ev-1", approved[0].EventID)
	assert.Equal(t, day, approved[0].EventDate, "stored date is normalized")

	other, _ := s.ListApprovedForDate(ctx, "projector", day.AddDate(0, 0, 1))
	assert.Empty(t, other)

	a, err := s.GetAllocation(ctx, "ev-2", "projector")
	require.NoError(t, err)
	a.Status = domain.AllocationApproved
	require.NoError(t, s.UpdateAllocation(ctx, a))

	approved, _ = s.ListApprovedForDate(ctx, "projector", day)
	assert.Len(t, approved, 2)

	_, err = s.GetAllocation(ctx, "ev-9", "projector")
	assert.ErrorIs(t, err, domain.ErrAllocationNotFound)

	list, _ := s.ListAllocations(ctx, "ev-1")
	assert.Len(t, list, 1)
}

func TestMemoryStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		if err := repos.InsertRSVP(ctx, &domain.EventRSVP{EventID: "ev-1", UserID: "u1", Status: domain.RSVPAccepted}); err != nil {
			return err
		}
		n, err := repos.CountAccepted(ctx, "ev-1")
		require.NoError(t, err)
		assert.Equal(t, 1, n, "tx sees its own writes")

		outside, _ := s.CountAccepted(ctx, "ev-1")
		assert.Equal(t, 0, outside, "uncommitted writes are invisible")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, _ := s.CountAccepted(ctx, "ev-1")
	assert.Equal(t, 0, n)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, repos Repositories) error {
		return repos.InsertRSVP(ctx, &domain.EventRSVP{EventID: "ev-1", UserID: "u1", Status: domain.RSVPAccepted})
	}))
	n, _ = s.CountAccepted(ctx, "ev-1")
	assert.Equal(t, 1, n)
}

func TestMemoryStore_Audit(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	// Writes straight to storage bypass admission, the way legacy rows would
	for _, u := range []string{"u1", "u2"} {
		require.NoError(t, s.InsertRSVP(ctx, &domain.EventRSVP{EventID: "ev-2", UserID: u, Status: domain.RSVPAccepted}))
	}
	for _, ev := range []string{"ev-1", "ev-2"} {
		require.NoError(t, s.InsertAllocation(ctx, &domain.EventResourceAllocation{
			EventID: ev, ResourceID: "projector", EventDate: day, QuantityNeeded: 2, Status: domain.AllocationApproved,
		}))
	}

	events, err := s.FindOvercommittedEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []EventOvercommit{{EventID: "ev-2", Capacity: 1, Accepted: 2}}, events)

	resources, err := s.FindOvercommittedResources(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, []ResourceOvercommit{{ResourceID: "projector", Date: day, TotalCount: 3, Allocated: 4}}, resources)

	later, err := s.FindOvercommittedResources(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, later)
}
