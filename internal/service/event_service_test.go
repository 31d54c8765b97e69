package service

import (
	"context"
	"testing"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/dto"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventService_CreateIsAlwaysUnapproved(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewEventService(store, nil)

	resp, err := svc.Create(context.Background(), &dto.CreateEventRequest{
		Title:          "Chess club",
		Date:           "2024-01-15",
		StartTime:      "18:00",
		EndTime:        "20:00",
		Capacity:       30,
		IsRecurring:    true,
		RecurrenceType: "WEEKLY",
	}, "organizer-1")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.IsApproved)

	stored, err := store.GetEvent(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "organizer-1", stored.CreatorID)
	assert.Equal(t, domain.RecurrenceWeekly, stored.RecurrenceType)
}

func TestEventService_CreateRejectsInvalid(t *testing.T) {
	svc := NewEventService(repository.NewMemoryStore(), nil)

	_, err := svc.Create(context.Background(), &dto.CreateEventRequest{
		Title:     "Backwards",
		Date:      "2024-01-15",
		StartTime: "18:00",
		EndTime:   "17:00",
		Capacity:  30,
	}, "organizer-1")

	assert.ErrorIs(t, err, domain.ErrInvalidEvent)
}

func TestEventService_Approve(t *testing.T) {
	store := repository.NewMemoryStore()
	seedEvent(t, store, "ev-1", 10, false)
	pub := NewMockDecisionPublisher()
	svc := NewEventService(store, pub)
	ctx := context.Background()

	_, err := svc.Approve(ctx, "ev-1", domain.RoleOrganizer)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	for i := 0; i < 2; i++ {
		resp, err := svc.Approve(ctx, "ev-1", domain.RoleAdmin)
		require.NoError(t, err)
		assert.True(t, resp.IsApproved)
	}

	got, err := svc.Get(ctx, "ev-1")
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	assert.Equal(t, []string{"ev-1"}, pub.approvals, "only the transition is published")

	_, err = svc.Approve(ctx, "missing", domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestEventService_ApproveOpensRSVPs(t *testing.T) {
	store := repository.NewMemoryStore()
	seedEvent(t, store, "ev-1", 10, false)
	events := NewEventService(store, nil)
	rsvps := NewRSVPService(store, nil, nil, fastAdmission())
	ctx := context.Background()

	_, err := rsvps.Respond(ctx, "ev-1", "u1", domain.RSVPAccepted)
	require.ErrorIs(t, err, domain.ErrEventNotApproved)

	_, err = events.Approve(ctx, "ev-1", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = rsvps.Respond(ctx, "ev-1", "u1", domain.RSVPAccepted)
	assert.NoError(t, err)
}

func TestResourceService(t *testing.T) {
	svc := NewResourceService(repository.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.CreateResourceRequest{Name: "Projector", TotalCount: 10}, domain.RoleOrganizer)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Create(ctx, &dto.CreateResourceRequest{Name: "Projector", TotalCount: -1}, domain.RoleAdmin)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	created, err := svc.Create(ctx, &dto.CreateResourceRequest{Name: " Projector ", Category: "AV", TotalCount: 10}, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "Projector", created.Name)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.TotalCount)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrResourceNotFound)
}
