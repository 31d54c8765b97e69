package service

import (
	"context"
	"strings"

	"github.com/Incognitol07/event-management-system-sub001/internal/arbiter"
	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/dto"
	"github.com/Incognitol07/event-management-system-sub001/internal/metrics"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/pkg/logger"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// AllocationService defines the interface for resource booking
type AllocationService interface {
	// Request books Quantity units of a resource for an event's date.
	// Admin requests are approved directly, others wait as PENDING.
	Request(ctx context.Context, req *dto.AllocationRequest, role domain.Role) (*dto.AllocationResponse, error)

	// Review approves or denies a PENDING allocation. Admin only.
	Review(ctx context.Context, eventID, resourceID string, approve bool, notes string, role domain.Role) (*dto.AllocationResponse, error)

	// Cancel releases a PENDING or APPROVED allocation
	Cancel(ctx context.Context, eventID, resourceID string) (*dto.AllocationResponse, error)

	// List returns every allocation of an event
	List(ctx context.Context, eventID string) (*dto.AllocationListResponse, error)
}

// allocationService implements AllocationService
type allocationService struct {
	store     repository.Store
	admission *admission
	publisher DecisionPublisher
}

// NewAllocationService creates a new allocation service
func NewAllocationService(store repository.Store, locker repository.Locker, publisher DecisionPublisher, cfg *AdmissionConfig) AllocationService {
	if publisher == nil {
		publisher = NewNoOpDecisionPublisher()
	}
	return &allocationService{
		store:     store,
		admission: newAdmission(store, locker, cfg),
		publisher: publisher,
	}
}

// Request books a resource for an event
func (s *allocationService) Request(ctx context.Context, req *dto.AllocationRequest, role domain.Role) (*dto.AllocationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.allocation.request")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}
	eventID := strings.TrimSpace(req.EventID)
	resourceID := strings.TrimSpace(req.ResourceID)
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("resource_id", resourceID),
		attribute.Int("quantity", req.Quantity),
		attribute.String("role", string(role)),
	)

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if resourceID == "" {
		span.SetStatus(codes.Error, "invalid resource_id")
		return nil, domain.ErrInvalidResourceID
	}
	if req.Quantity <= 0 {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}

	// The date picks the pool and therefore the lock. It never changes after creation.
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err, "get event failed")
		return nil, err
	}

	var (
		decision arbiter.AllocationDecision
		resp     *dto.AllocationResponse
	)

	err = s.admission.run(ctx, "allocation", repository.ResourceLockKey(resourceID, event.Date), func(ctx context.Context, repos repository.Repositories) error {
		event, err := repos.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}

		resource, err := repos.GetResourceForUpdate(ctx, resourceID)
		if err != nil {
			return err
		}

		pool, err := repos.ListApprovedForDate(ctx, resourceID, event.Date)
		if err != nil {
			return err
		}

		existing, err := repos.GetAllocation(ctx, eventID, resourceID)
		if err != nil && !domain.IsNotFoundError(err) {
			return err
		}

		decision = arbiter.Allocate(arbiter.AllocationRequest{
			Event:           event,
			Resource:        resource,
			ApprovedForDate: pool,
			Quantity:        req.Quantity,
			RequesterRole:   role,
		})
		if !decision.Granted() {
			return decision.Err()
		}

		alloc := &domain.EventResourceAllocation{
			EventID:        eventID,
			ResourceID:     resourceID,
			EventDate:      event.Date,
			QuantityNeeded: req.Quantity,
			Status:         decision.Status,
			Notes:          req.Notes,
		}

		outcome := domain.OutcomeCreated
		if existing == nil {
			err = repos.InsertAllocation(ctx, alloc)
		} else {
			outcome = domain.OutcomeUpdated
			err = repos.UpdateAllocation(ctx, alloc)
		}
		if err != nil {
			return err
		}

		resp = dto.AllocationFromDomain(alloc)
		resp.Outcome = string(outcome)
		remaining := decision.Available
		if decision.Status == domain.AllocationApproved {
			remaining -= req.Quantity
		}
		resp.Available = &remaining
		return nil
	})

	log := logger.Get().WithContext(ctx)

	if err != nil {
		if decision.Outcome == arbiter.OutcomeRejected {
			metrics.RecordAllocationDecision(string(decision.Outcome), "")
			span.SetAttributes(attribute.String("reason", decision.Reason))
			span.SetStatus(codes.Error, decision.Reason)
			s.publishAllocation(ctx, &domain.EventResourceAllocation{
				EventID: eventID, ResourceID: resourceID, EventDate: event.Date, QuantityNeeded: req.Quantity,
			}, string(decision.Outcome), decision.Reason)
			log.Info("Allocation rejected",
				zap.String("event_id", eventID),
				zap.String("resource_id", resourceID),
				zap.Int("requested", decision.Requested),
				zap.Int("available", decision.Available),
			)
			return nil, err
		}
		telemetry.RecordError(span, err, "allocation admission failed")
		return nil, err
	}

	metrics.RecordAllocationDecision(string(decision.Outcome), string(decision.Status))
	s.publishAllocation(ctx, &domain.EventResourceAllocation{
		EventID: eventID, ResourceID: resourceID, EventDate: event.Date, QuantityNeeded: req.Quantity, Status: decision.Status,
	}, string(decision.Outcome), "")

	log.Info("Allocation recorded",
		zap.String("event_id", eventID),
		zap.String("resource_id", resourceID),
		zap.Int("quantity", req.Quantity),
		zap.String("status", resp.Status),
		zap.String("outcome", resp.Outcome),
	)

	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Review approves or denies a PENDING allocation
func (s *allocationService) Review(ctx context.Context, eventID, resourceID string, approve bool, notes string, role domain.Role) (*dto.AllocationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.allocation.review")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("resource_id", resourceID),
		attribute.Bool("approve", approve),
	)

	if role != domain.RoleAdmin {
		span.SetStatus(codes.Error, "forbidden")
		return nil, domain.ErrForbidden
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err, "get event failed")
		return nil, err
	}

	var (
		decision arbiter.AllocationDecision
		resp     *dto.AllocationResponse
	)

	err = s.admission.run(ctx, "review", repository.ResourceLockKey(resourceID, event.Date), func(ctx context.Context, repos repository.Repositories) error {
		alloc, err := repos.GetAllocation(ctx, eventID, resourceID)
		if err != nil {
			return err
		}
		if alloc.Status != domain.AllocationPending {
			return domain.ErrInvalidAllocationStatus
		}

		alloc.Status = domain.AllocationDenied
		if approve {
			event, err := repos.GetEvent(ctx, eventID)
			if err != nil {
				return err
			}
			resource, err := repos.GetResourceForUpdate(ctx, resourceID)
			if err != nil {
				return err
			}
			pool, err := repos.ListApprovedForDate(ctx, resourceID, event.Date)
			if err != nil {
				return err
			}

			// Inventory may have been taken since the request was filed
			decision = arbiter.Allocate(arbiter.AllocationRequest{
				Event:           event,
				Resource:        resource,
				ApprovedForDate: pool,
				Quantity:        alloc.QuantityNeeded,
				RequesterRole:   role,
			})
			if !decision.Granted() {
				return decision.Err()
			}
			alloc.Status = decision.Status
		}
		if notes != "" {
			alloc.Notes = notes
		}

		if err := repos.UpdateAllocation(ctx, alloc); err != nil {
			return err
		}
		resp = dto.AllocationFromDomain(alloc)
		resp.Outcome = string(domain.OutcomeUpdated)
		return nil
	})
	if err != nil {
		if decision.Outcome == arbiter.OutcomeRejected {
			metrics.RecordAllocationDecision(string(decision.Outcome), "")
		}
		telemetry.RecordError(span, err, "review failed")
		return nil, err
	}

	outcome := string(arbiter.OutcomeRejected)
	if approve {
		outcome = string(arbiter.OutcomeAllocated)
	}
	metrics.RecordAllocationDecision(outcome, resp.Status)
	s.publishAllocation(ctx, &domain.EventResourceAllocation{
		EventID: eventID, ResourceID: resourceID, QuantityNeeded: resp.QuantityNeeded, Status: domain.AllocationStatus(resp.Status),
	}, outcome, "")

	logger.Get().WithContext(ctx).Info("Allocation reviewed",
		zap.String("event_id", eventID),
		zap.String("resource_id", resourceID),
		zap.String("status", resp.Status),
	)

	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Cancel releases a PENDING or APPROVED allocation
func (s *allocationService) Cancel(ctx context.Context, eventID, resourceID string) (*dto.AllocationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.allocation.cancel")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID), attribute.String("resource_id", resourceID))

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err, "get event failed")
		return nil, err
	}

	var resp *dto.AllocationResponse
	err = s.admission.run(ctx, "cancel", repository.ResourceLockKey(resourceID, event.Date), func(ctx context.Context, repos repository.Repositories) error {
		alloc, err := repos.GetAllocation(ctx, eventID, resourceID)
		if err != nil {
			return err
		}
		switch alloc.Status {
		case domain.AllocationPending, domain.AllocationApproved:
		default:
			return domain.ErrInvalidAllocationStatus
		}

		alloc.Status = domain.AllocationCancelled
		if err := repos.UpdateAllocation(ctx, alloc); err != nil {
			return err
		}
		resp = dto.AllocationFromDomain(alloc)
		resp.Outcome = string(domain.OutcomeUpdated)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err, "cancel failed")
		return nil, err
	}

	logger.Get().WithContext(ctx).Info("Allocation cancelled",
		zap.String("event_id", eventID),
		zap.String("resource_id", resourceID),
	)

	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// List returns every allocation of an event
func (s *allocationService) List(ctx context.Context, eventID string) (*dto.AllocationListResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.allocation.list")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		telemetry.RecordError(span, err, "get event failed")
		return nil, err
	}

	allocations, err := s.store.ListAllocations(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err, "list allocations failed")
		return nil, err
	}

	resp := &dto.AllocationListResponse{
		EventID:     eventID,
		Allocations: make([]*dto.AllocationResponse, 0, len(allocations)),
	}
	for _, a := range allocations {
		resp.Allocations = append(resp.Allocations, dto.AllocationFromDomain(a))
	}

	span.SetStatus(codes.Ok, "")
	return resp, nil
}

func (s *allocationService) publishAllocation(ctx context.Context, alloc *domain.EventResourceAllocation, outcome, reason string) {
	if err := s.publisher.PublishAllocationDecided(ctx, alloc, outcome, reason); err != nil {
		logger.Get().WithContext(ctx).Warn("Failed to publish allocation decision",
			zap.String("event_id", alloc.EventID),
			zap.String("resource_id", alloc.ResourceID),
			zap.Error(err),
		)
	}
}
