package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/metrics"
	"github.com/Incognitol07/event-management-system-sub001/pkg/kafka"
	"github.com/google/uuid"
)

// Decision event types
const (
	EventTypeRSVPDecided       = "rsvp.decided"
	EventTypeAllocationDecided = "allocation.decided"
	EventTypeEventApproved     = "event.approved"
)

// DecisionEvent is the record published for every admission outcome
type DecisionEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Source     string    `json:"source"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id,omitempty"`
	ResourceID string    `json:"resource_id,omitempty"`
	Outcome    string    `json:"outcome"`
	Status     string    `json:"status,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
}

// DecisionPublisher defines the interface for publishing admission decisions
type DecisionPublisher interface {
	// PublishRSVPDecided publishes the outcome of an RSVP
	PublishRSVPDecided(ctx context.Context, rsvp *domain.EventRSVP, outcome, reason string) error

	// PublishAllocationDecided publishes the outcome of an allocation request or review
	PublishAllocationDecided(ctx context.Context, alloc *domain.EventResourceAllocation, outcome, reason string) error

	// PublishEventApproved publishes an admin approval
	PublishEventApproved(ctx context.Context, event *domain.BaseEvent) error

	// Close closes the publisher
	Close() error
}

// producer is the subset of pkg/kafka the publisher needs
type producer interface {
	Produce(ctx context.Context, msg *kafka.Message) error
	Close()
}

// KafkaDecisionPublisher implements DecisionPublisher using Kafka
type KafkaDecisionPublisher struct {
	producer    producer
	topic       string
	serviceName string
}

// DecisionPublisherConfig contains configuration for the decision publisher
type DecisionPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaDecisionPublisher creates a new Kafka decision publisher
func NewKafkaDecisionPublisher(ctx context.Context, cfg *DecisionPublisherConfig) (*KafkaDecisionPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("decision publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "event-service-producer"
	}

	p, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		Linger:        10 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newKafkaDecisionPublisher(p, cfg.Topic, cfg.ServiceName), nil
}

func newKafkaDecisionPublisher(p producer, topic, serviceName string) *KafkaDecisionPublisher {
	if topic == "" {
		topic = "event-decisions"
	}
	if serviceName == "" {
		serviceName = "event-service"
	}
	return &KafkaDecisionPublisher{producer: p, topic: topic, serviceName: serviceName}
}

// PublishRSVPDecided publishes the outcome of an RSVP
func (p *KafkaDecisionPublisher) PublishRSVPDecided(ctx context.Context, rsvp *domain.EventRSVP, outcome, reason string) error {
	return p.publish(ctx, &DecisionEvent{
		Type:    EventTypeRSVPDecided,
		EventID: rsvp.EventID,
		UserID:  rsvp.UserID,
		Outcome: outcome,
		Status:  string(rsvp.Status),
		Reason:  reason,
	})
}

// PublishAllocationDecided publishes the outcome of an allocation request or review
func (p *KafkaDecisionPublisher) PublishAllocationDecided(ctx context.Context, alloc *domain.EventResourceAllocation, outcome, reason string) error {
	return p.publish(ctx, &DecisionEvent{
		Type:       EventTypeAllocationDecided,
		EventID:    alloc.EventID,
		ResourceID: alloc.ResourceID,
		Outcome:    outcome,
		Status:     string(alloc.Status),
		Reason:     reason,
		Quantity:   alloc.QuantityNeeded,
	})
}

// PublishEventApproved publishes an admin approval
func (p *KafkaDecisionPublisher) PublishEventApproved(ctx context.Context, event *domain.BaseEvent) error {
	return p.publish(ctx, &DecisionEvent{
		Type:    EventTypeEventApproved,
		EventID: event.ID,
		Outcome: "APPROVED",
	})
}

// Close closes the decision publisher
func (p *KafkaDecisionPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// publish keys records by event so one event's decisions stay ordered
func (p *KafkaDecisionPublisher) publish(ctx context.Context, event *DecisionEvent) error {
	event.ID = uuid.New().String()
	event.OccurredAt = time.Now().UTC()
	event.Source = p.serviceName

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	msg := &kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.EventID),
		Value: value,
		Headers: map[string]string{
			"event_type":   event.Type,
			"event_id":     event.ID,
			"source":       p.serviceName,
			"content_type": "application/json",
		},
		Timestamp: event.OccurredAt,
	}

	err = p.producer.Produce(ctx, msg)
	metrics.RecordPublish(event.Type, err)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

// NoOpDecisionPublisher is a no-op implementation for when Kafka is disabled
type NoOpDecisionPublisher struct{}

// NewNoOpDecisionPublisher creates a new no-op decision publisher
func NewNoOpDecisionPublisher() *NoOpDecisionPublisher {
	return &NoOpDecisionPublisher{}
}

func (p *NoOpDecisionPublisher) PublishRSVPDecided(ctx context.Context, rsvp *domain.EventRSVP, outcome, reason string) error {
	return nil
}

func (p *NoOpDecisionPublisher) PublishAllocationDecided(ctx context.Context, alloc *domain.EventResourceAllocation, outcome, reason string) error {
	return nil
}

func (p *NoOpDecisionPublisher) PublishEventApproved(ctx context.Context, event *domain.BaseEvent) error {
	return nil
}

func (p *NoOpDecisionPublisher) Close() error {
	return nil
}
