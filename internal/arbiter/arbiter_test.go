package arbiter

import (
	"errors"
	"testing"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventDate = time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

func approvedEvent(capacity int) *domain.BaseEvent {
	return &domain.BaseEvent{ID: "ev-1", Date: eventDate, Capacity: capacity, IsApproved: true}
}

func TestAutoApprove(t *testing.T) {
	assert.True(t, AutoApprove(domain.RoleAdmin))
	assert.False(t, AutoApprove(domain.RoleOrganizer))
	assert.False(t, AutoApprove(domain.RoleStudent))
	assert.False(t, AutoApprove(""))
	assert.False(t, AutoApprove("admin"))
}

func TestDecideRSVP_CapacityThree(t *testing.T) {
	event := approvedEvent(3)
	accepted := 0

	for i := 1; i <= 3; i++ {
		d := DecideRSVP(RSVPRequest{Event: event, AcceptedCount: accepted, Requested: domain.RSVPAccepted})
		require.True(t, d.Granted(), "rsvp %d", i)
		assert.NoError(t, d.Err())
		accepted++
	}

	fourth := DecideRSVP(RSVPRequest{Event: event, AcceptedCount: accepted, Requested: domain.RSVPAccepted})
	assert.False(t, fourth.Granted())
	assert.Equal(t, domain.ReasonEventFull, fourth.Reason)
	assert.ErrorIs(t, fourth.Err(), domain.ErrEventFull)

	var full *domain.EventFullError
	require.True(t, errors.As(fourth.Err(), &full))
	assert.Equal(t, 3, full.Capacity)
	assert.Equal(t, 3, full.Accepted)
}

func TestDecideRSVP_ReaffirmWhenFull(t *testing.T) {
	event := approvedEvent(3)
	existing := &domain.EventRSVP{EventID: event.ID, UserID: "u1", Status: domain.RSVPAccepted}

	d := DecideRSVP(RSVPRequest{Event: event, AcceptedCount: 3, Requested: domain.RSVPAccepted, Existing: existing})

	assert.True(t, d.Granted())
	assert.True(t, d.Reaffirmed)
}

func TestDecideRSVP_PendingExistingDoesNotBypassFull(t *testing.T) {
	event := approvedEvent(3)
	existing := &domain.EventRSVP{EventID: event.ID, UserID: "u1", Status: domain.RSVPPending}

	d := DecideRSVP(RSVPRequest{Event: event, AcceptedCount: 3, Requested: domain.RSVPAccepted, Existing: existing})

	assert.Equal(t, OutcomeRejected, d.Outcome)
	assert.Equal(t, domain.ReasonEventFull, d.Reason)
}

func TestDecideRSVP_DeclineAndPendingIgnoreCapacity(t *testing.T) {
	event := approvedEvent(3)

	for _, status := range []domain.RSVPStatus{domain.RSVPDeclined, domain.RSVPPending} {
		d := DecideRSVP(RSVPRequest{Event: event, AcceptedCount: 3, Requested: status})
		assert.True(t, d.Granted(), status)
	}
}

func TestDecideRSVP_NotApprovedWinsOverEverything(t *testing.T) {
	event := approvedEvent(3)
	event.IsApproved = false

	for _, status := range []domain.RSVPStatus{domain.RSVPAccepted, domain.RSVPDeclined} {
		d := DecideRSVP(RSVPRequest{Event: event, AcceptedCount: 0, Requested: status})
		assert.Equal(t, domain.ReasonEventNotApproved, d.Reason)
		assert.ErrorIs(t, d.Err(), domain.ErrEventNotApproved)
	}
}

func allocation(eventID string, date time.Time, qty int, status domain.AllocationStatus) domain.EventResourceAllocation {
	return domain.EventResourceAllocation{
		EventID:        eventID,
		ResourceID:     "projector",
		EventDate:      date,
		QuantityNeeded: qty,
		Status:         status,
	}
}

func TestAllocate_TenTotalSixAllocated(t *testing.T) {
	event := approvedEvent(50)
	resource := &domain.Resource{ID: "projector", TotalCount: 10}
	pool := []domain.EventResourceAllocation{
		allocation("ev-2", eventDate, 4, domain.AllocationApproved),
		allocation("ev-3", eventDate, 2, domain.AllocationApproved),
	}

	admin := Allocate(AllocationRequest{Event: event, Resource: resource, ApprovedForDate: pool, Quantity: 4, RequesterRole: domain.RoleAdmin})
	assert.True(t, admin.Granted())
	assert.Equal(t, domain.AllocationApproved, admin.Status)
	assert.Equal(t, 6, admin.Allocated)
	assert.Equal(t, 4, admin.Available)

	organizer := Allocate(AllocationRequest{Event: event, Resource: resource, ApprovedForDate: pool, Quantity: 4, RequesterRole: domain.RoleOrganizer})
	assert.True(t, organizer.Granted())
	assert.Equal(t, domain.AllocationPending, organizer.Status)

	tooMany := Allocate(AllocationRequest{Event: event, Resource: resource, ApprovedForDate: pool, Quantity: 5, RequesterRole: domain.RoleAdmin})
	assert.Equal(t, OutcomeRejected, tooMany.Outcome)

	var ire *domain.InsufficientResourceError
	require.True(t, errors.As(tooMany.Err(), &ire))
	assert.Equal(t, 5, ire.Requested)
	assert.Equal(t, 4, ire.Available)
}

func TestAllocate_IgnoresNonApprovedOtherDatesAndOwnRow(t *testing.T) {
	event := approvedEvent(50)
	resource := &domain.Resource{ID: "projector", TotalCount: 10}
	pool := []domain.EventResourceAllocation{
		allocation("ev-2", eventDate, 3, domain.AllocationPending),
		allocation("ev-3", eventDate, 3, domain.AllocationDenied),
		allocation("ev-4", eventDate, 3, domain.AllocationCancelled),
		allocation("ev-5", eventDate.AddDate(0, 0, 1), 9, domain.AllocationApproved),
		allocation(event.ID, eventDate, 8, domain.AllocationApproved),
		{EventID: "ev-6", ResourceID: "chairs", EventDate: eventDate, QuantityNeeded: 9, Status: domain.AllocationApproved},
	}

	d := Allocate(AllocationRequest{Event: event, Resource: resource, ApprovedForDate: pool, Quantity: 10})

	assert.True(t, d.Granted())
	assert.Equal(t, 0, d.Allocated)
	assert.Equal(t, 10, d.Available)
}

func TestAllocate_SameDateDifferentTimesShareThePool(t *testing.T) {
	morning := approvedEvent(50)
	morning.StartTime = 8 * time.Hour
	morning.EndTime = 9 * time.Hour
	resource := &domain.Resource{ID: "projector", TotalCount: 2}
	evening := allocation("ev-evening", eventDate, 2, domain.AllocationApproved)

	d := Allocate(AllocationRequest{Event: morning, Resource: resource, ApprovedForDate: []domain.EventResourceAllocation{evening}, Quantity: 1})

	assert.Equal(t, OutcomeRejected, d.Outcome)
	assert.Equal(t, 0, d.Available)
}

func TestAllocate_ExactFit(t *testing.T) {
	d := Allocate(AllocationRequest{
		Event:    approvedEvent(1),
		Resource: &domain.Resource{ID: "projector", TotalCount: 3},
		Quantity: 3,
	})

	assert.True(t, d.Granted())
	assert.NoError(t, d.Err())
}
