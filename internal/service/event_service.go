package service

import (
	"context"
	"strings"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/dto"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/pkg/logger"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// EventService defines the interface for event lookup and approval
type EventService interface {
	// Create stores a new, unapproved event
	Create(ctx context.Context, req *dto.CreateEventRequest, creatorID string) (*dto.EventResponse, error)

	// Get retrieves an event by ID
	Get(ctx context.Context, eventID string) (*dto.EventResponse, error)

	// Approve marks an event approved. Admin only, idempotent.
	Approve(ctx context.Context, eventID string, role domain.Role) (*dto.ApproveEventResponse, error)
}

// eventService implements EventService
type eventService struct {
	store     repository.Store
	publisher DecisionPublisher
}

// NewEventService creates a new event service
func NewEventService(store repository.Store, publisher DecisionPublisher) EventService {
	if publisher == nil {
		publisher = NewNoOpDecisionPublisher()
	}
	return &eventService{store: store, publisher: publisher}
}

// Create stores a new event. Approval is always a separate admin action.
func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest, creatorID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	event, err := req.ToDomain()
	if err != nil {
		span.SetStatus(codes.Error, "invalid event")
		return nil, err
	}
	event.ID = uuid.New().String()
	event.CreatorID = strings.TrimSpace(creatorID)
	event.IsApproved = false

	span.SetAttributes(attribute.String("event_id", event.ID))

	if err := event.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid event")
		return nil, err
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		telemetry.RecordError(span, err, "create event failed")
		return nil, err
	}

	logger.Get().WithContext(ctx).Info("Event created",
		zap.String("event_id", event.ID),
		zap.String("creator_id", event.CreatorID),
		zap.Bool("recurring", event.IsRecurring),
	)

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// Get retrieves an event by ID
func (s *eventService) Get(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err, "get event failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// Approve marks an event approved
func (s *eventService) Approve(ctx context.Context, eventID string, role domain.Role) (*dto.ApproveEventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.approve")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID), attribute.String("role", string(role)))

	if role != domain.RoleAdmin {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	var (
		event      *domain.BaseEvent
		transition bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		event, err = repos.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event.IsApproved {
			return nil
		}
		transition = true
		event.IsApproved = true
		return repos.SetApproved(ctx, eventID, true)
	})
	if err != nil {
		telemetry.RecordError(span, err, "approve event failed")
		return nil, err
	}

	if transition {
		if err := s.publisher.PublishEventApproved(ctx, event); err != nil {
			logger.Get().WithContext(ctx).Warn("Failed to publish event approval",
				zap.String("event_id", eventID),
				zap.Error(err),
			)
		}
		logger.Get().WithContext(ctx).Info("Event approved", zap.String("event_id", eventID))
	}

	span.SetStatus(codes.Ok, "")
	return &dto.ApproveEventResponse{EventID: eventID, IsApproved: true}, nil
}

// ResourceService defines the interface for registering bookable inventory
type ResourceService interface {
	// Create registers a resource. Admin only.
	Create(ctx context.Context, req *dto.CreateResourceRequest, role domain.Role) (*dto.ResourceResponse, error)

	// Get retrieves a resource by ID
	Get(ctx context.Context, resourceID string) (*dto.ResourceResponse, error)
}

// resourceService implements ResourceService
type resourceService struct {
	store repository.Store
}

// NewResourceService creates a new resource service
func NewResourceService(store repository.Store) ResourceService {
	return &resourceService{store: store}
}

// Create registers a resource
func (s *resourceService) Create(ctx context.Context, req *dto.CreateResourceRequest, role domain.Role) (*dto.ResourceResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.resource.create")
	defer span.End()

	if role != domain.RoleAdmin {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}
	if req == nil || req.TotalCount < 0 {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}

	resource := &domain.Resource{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		Category:   strings.TrimSpace(req.Category),
		TotalCount: req.TotalCount,
	}
	span.SetAttributes(attribute.String("resource_id", resource.ID))

	if err := s.store.CreateResource(ctx, resource); err != nil {
		telemetry.RecordError(span, err, "create resource failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.ResourceFromDomain(resource), nil
}

// Get retrieves a resource by ID
func (s *resourceService) Get(ctx context.Context, resourceID string) (*dto.ResourceResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.resource.get")
	defer span.End()

	span.SetAttributes(attribute.String("resource_id", resourceID))

	resource, err := s.store.GetResource(ctx, resourceID)
	if err != nil {
		telemetry.RecordError(span, err, "get resource failed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.ResourceFromDomain(resource), nil
}
