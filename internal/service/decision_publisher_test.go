package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/pkg/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProducer captures produced messages
type fakeProducer struct {
	mu       sync.Mutex
	messages []*kafka.Message
	err      error
	closed   bool
}

func (f *fakeProducer) Produce(ctx context.Context, msg *kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeProducer) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func TestKafkaDecisionPublisher_RSVP(t *testing.T) {
	fp := &fakeProducer{}
	pub := newKafkaDecisionPublisher(fp, "", "")

	err := pub.PublishRSVPDecided(context.Background(),
		&domain.EventRSVP{EventID: "ev-1", UserID: "u1", Status: domain.RSVPAccepted}, "REJECTED", domain.ReasonEventFull)
	require.NoError(t, err)

	require.Len(t, fp.messages, 1)
	msg := fp.messages[0]
	assert.Equal(t, "event-decisions", msg.Topic)
	assert.Equal(t, []byte("ev-1"), msg.Key)
	assert.Equal(t, EventTypeRSVPDecided, msg.Headers["event_type"])
	assert.Equal(t, "event-service", msg.Headers["source"])
	assert.Equal(t, "application/json", msg.Headers["content_type"])

	var event DecisionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, msg.Headers["event_id"], event.ID)
	assert.Equal(t, "u1", event.UserID)
	assert.Equal(t, "REJECTED", event.Outcome)
	assert.Equal(t, domain.ReasonEventFull, event.Reason)
	assert.False(t, event.OccurredAt.IsZero())
}

func TestKafkaDecisionPublisher_AllocationAndApproval(t *testing.T) {
	fp := &fakeProducer{}
	pub := newKafkaDecisionPublisher(fp, "decisions", "events-api")
	ctx := context.Background()

	require.NoError(t, pub.PublishAllocationDecided(ctx, &domain.EventResourceAllocation{
		EventID: "ev-1", ResourceID: "projector", QuantityNeeded: 4, Status: domain.AllocationApproved,
	}, "ALLOCATED", ""))
	require.NoError(t, pub.PublishEventApproved(ctx, &domain.BaseEvent{ID: "ev-1"}))

	require.Len(t, fp.messages, 2)
	assert.Equal(t, "decisions", fp.messages[0].Topic)
	assert.Equal(t, EventTypeAllocationDecided, fp.messages[0].Headers["event_type"])
	assert.Equal(t, EventTypeEventApproved, fp.messages[1].Headers["event_type"])

	var alloc DecisionEvent
	require.NoError(t, json.Unmarshal(fp.messages[0].Value, &alloc))
	assert.Equal(t, "projector", alloc.ResourceID)
	assert.Equal(t, 4, alloc.Quantity)
	assert.Equal(t, "APPROVED", alloc.Status)

	require.NoError(t, pub.Close())
	assert.True(t, fp.closed)
}

func TestKafkaDecisionPublisher_ProduceError(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker unavailable")}
	pub := newKafkaDecisionPublisher(fp, "", "")

	err := pub.PublishEventApproved(context.Background(), &domain.BaseEvent{ID: "ev-1"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), EventTypeEventApproved)
}

func TestNewKafkaDecisionPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaDecisionPublisher(context.Background(), nil)
	assert.Error(t, err)

	_, err = NewKafkaDecisionPublisher(context.Background(), &DecisionPublisherConfig{})
	assert.Error(t, err)
}

func TestNoOpDecisionPublisher(t *testing.T) {
	pub := NewNoOpDecisionPublisher()
	ctx := context.Background()

	assert.NoError(t, pub.PublishRSVPDecided(ctx, &domain.EventRSVP{}, "", ""))
	assert.NoError(t, pub.PublishAllocationDecided(ctx, &domain.EventResourceAllocation{}, "", ""))
	assert.NoError(t, pub.PublishEventApproved(ctx, &domain.BaseEvent{}))
	assert.NoError(t, pub.Close())
}
