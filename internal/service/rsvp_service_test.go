package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRSVPFixture(t *testing.T, capacity int, approved bool) (RSVPService, *repository.MemoryStore, *MockDecisionPublisher) {
	t.Helper()
	store := repository.NewMemoryStore()
	seedEvent(t, store, "ev-1", capacity, approved)
	pub := NewMockDecisionPublisher()
	return NewRSVPService(store, repository.NewMemoryLocker(nil), pub, fastAdmission()), store, pub
}

func TestRSVPService_CapacityThree(t *testing.T) {
	svc, store, pub := newRSVPFixture(t, 3, true)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		resp, err := svc.Respond(ctx, "ev-1", fmt.Sprintf("u%d", i), domain.RSVPAccepted)
		require.NoError(t, err)
		assert.Equal(t, string(domain.OutcomeCreated), resp.Outcome)
		assert.Equal(t, i, resp.Accepted)
	}

	_, err := svc.Respond(ctx, "ev-1", "u4", domain.RSVPAccepted)
	assert.ErrorIs(t, err, domain.ErrEventFull)
	var full *domain.EventFullError
	require.True(t, errors.As(err, &full))
	assert.Equal(t, 3, full.Capacity)

	// Nothing was written for the rejected user
	_, err = store.GetRSVP(ctx, "ev-1", "u4")
	assert.ErrorIs(t, err, domain.ErrRSVPNotFound)

	published := pub.RSVPs()
	require.Len(t, published, 4)
	assert.Equal(t, "REJECTED", published[3].Outcome)
	assert.Equal(t, domain.ReasonEventFull, published[3].Reason)
}

func TestRSVPService_ReaffirmAndIdempotence(t *testing.T) {
	svc, store, _ := newRSVPFixture(t, 1, true)
	ctx := context.Background()

	_, err := svc.Respond(ctx, "ev-1", "u1", domain.RSVPAccepted)
	require.NoError(t, err)

	again, err := svc.Respond(ctx, "ev-1", "u1", domain.RSVPAccepted)
	require.NoError(t, err)
	assert.True(t, again.Reaffirmed)
	assert.Equal(t, string(domain.OutcomeUpdated), again.Outcome)
	assert.Equal(t, 1, again.Accepted)

	n, err := store.CountAccepted(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "reaffirming never double-counts")

	list, err := store.ListRSVPs(ctx, "ev-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRSVPService_DeclineFreesSeat(t *testing.T) {
	svc, _, _ := newRSVPFixture(t, 1, true)
	ctx := context.Background()

	_, err := svc.Respond(ctx, "ev-1", "u1", domain.RSVPAccepted)
	require.NoError(t, err)

	_, err = svc.Respond(ctx, "ev-1", "u2", domain.RSVPAccepted)
	require.ErrorIs(t, err, domain.ErrEventFull)

	declined, err := svc.Respond(ctx, "ev-1", "u1", domain.RSVPDeclined)
	require.NoError(t, err)
	assert.Equal(t, 0, declined.Accepted)

	resp, err := svc.Respond(ctx, "ev-1", "u2", domain.RSVPAccepted)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Accepted)
}

func TestRSVPService_NotApproved(t *testing.T) {
	svc, _, _ := newRSVPFixture(t, 10, false)

	_, err := svc.Respond(context.Background(), "ev-1", "u1", domain.RSVPDeclined)

	assert.ErrorIs(t, err, domain.ErrEventNotApproved)
}

func TestRSVPService_Validation(t *testing.T) {
	svc, _, _ := newRSVPFixture(t, 10, true)
	ctx := context.Background()

	_, err := svc.Respond(ctx, "", "u1", domain.RSVPAccepted)
	assert.ErrorIs(t, err, domain.ErrInvalidEventID)

	_, err = svc.Respond(ctx, "ev-1", " ", domain.RSVPAccepted)
	assert.ErrorIs(t, err, domain.ErrInvalidUserID)

	_, err = svc.Respond(ctx, "ev-1", "u1", "MAYBE")
	assert.ErrorIs(t, err, domain.ErrInvalidRSVPStatus)

	_, err = svc.Respond(ctx, "missing", "u1", domain.RSVPAccepted)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestRSVPService_ConcurrentRequestsNeverOvercommit(t *testing.T) {
	svc, store, _ := newRSVPFixture(t, 5, true)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		full     int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Respond(ctx, "ev-1", fmt.Sprintf("user-%02d", i), domain.RSVPAccepted)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, domain.ErrEventFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, accepted)
	assert.Equal(t, 35, full)

	n, err := store.CountAccepted(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	audit, err := store.FindOvercommittedEvents(ctx)
	require.NoError(t, err)
	assert.Empty(t, audit)
}

func TestRSVPService_RetriesTransientFailures(t *testing.T) {
	base := repository.NewMemoryStore()
	seedEvent(t, base, "ev-1", 3, true)
	store := &flakyStore{Store: base, failures: 2}
	svc := NewRSVPService(store, nil, nil, fastAdmission())

	resp, err := svc.Respond(context.Background(), "ev-1", "u1", domain.RSVPAccepted)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 3, store.calls)
}

func TestRSVPService_GivesUpAfterMaxRetries(t *testing.T) {
	base := repository.NewMemoryStore()
	seedEvent(t, base, "ev-1", 3, true)
	store := &flakyStore{Store: base, failures: 100}
	svc := NewRSVPService(store, nil, nil, fastAdmission())

	_, err := svc.Respond(context.Background(), "ev-1", "u1", domain.RSVPAccepted)

	assert.ErrorIs(t, err, retry.ErrMaxRetriesExceeded)
	var se *domain.StorageError
	assert.True(t, errors.As(err, &se))
	assert.Equal(t, 4, store.calls)
}

func TestRSVPService_PublishFailureDoesNotFailRequest(t *testing.T) {
	svc, _, pub := newRSVPFixture(t, 3, true)
	pub.err = errors.New("broker down")

	_, err := svc.Respond(context.Background(), "ev-1", "u1", domain.RSVPAccepted)

	assert.NoError(t, err)
}

func TestRSVPService_List(t *testing.T) {
	svc, _, _ := newRSVPFixture(t, 3, true)
	ctx := context.Background()

	_, err := svc.Respond(ctx, "ev-1", "u1", domain.RSVPAccepted)
	require.NoError(t, err)
	_, err = svc.Respond(ctx, "ev-1", "u2", domain.RSVPDeclined)
	require.NoError(t, err)

	list, err := svc.List(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, 3, list.Capacity)
	assert.Equal(t, 1, list.Accepted)
	assert.Len(t, list.RSVPs, 2)

	_, err = svc.List(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}
