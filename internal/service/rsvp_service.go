package service

import (
	"context"
	"strings"
	"time"

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

// RSVPService defines the interface for RSVP admission
type RSVPService interface {
	// Respond records userID's answer for an event, enforcing capacity for ACCEPTED
	Respond(ctx context.Context, eventID, userID string, status domain.RSVPStatus) (*dto.RSVPResponse, error)

	// List returns every RSVP of an event with the current ACCEPTED count
	List(ctx context.Context, eventID string) (*dto.RSVPListResponse, error)
}

// rsvpService implements RSVPService
type rsvpService struct {
	store     repository.Store
	admission *admission
	publisher DecisionPublisher
}

// NewRSVPService creates a new RSVP service
func NewRSVPService(store repository.Store, locker repository.Locker, publisher DecisionPublisher, cfg *AdmissionConfig) RSVPService {
	if publisher == nil {
		publisher = NewNoOpDecisionPublisher()
	}
	return &rsvpService{
		store:     store,
		admission: newAdmission(store, locker, cfg),
		publisher: publisher,
	}
}

// Respond records userID's answer for an event
func (s *rsvpService) Respond(ctx context.Context, eventID, userID string, status domain.RSVPStatus) (*dto.RSVPResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.rsvp.respond")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	userID = strings.TrimSpace(userID)
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
		attribute.String("status", string(status)),
	)

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if userID == "" {
		span.SetStatus(codes.Error, "invalid user_id")
		return nil, domain.ErrInvalidUserID
	}
	if !status.IsValid() {
		span.SetStatus(codes.Error, "invalid status")
		return nil, domain.ErrInvalidRSVPStatus
	}

	var (
		decision arbiter.RSVPDecision
		resp     *dto.RSVPResponse
	)

	err := s.admission.run(ctx, "rsvp", repository.EventLockKey(eventID), func(ctx context.Context, repos repository.Repositories) error {
		event, err := repos.GetEventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		accepted, err := repos.CountAccepted(ctx, eventID)
		if err != nil {
			return err
		}

		existing, err := repos.GetRSVP(ctx, eventID, userID)
		if err != nil && !domain.IsNotFoundError(err) {
			return err
		}

		decision = arbiter.DecideRSVP(arbiter.RSVPRequest{
			Event:         event,
			AcceptedCount: accepted,
			Requested:     status,
			Existing:      existing,
		})
		if !decision.Granted() {
			return decision.Err()
		}

		rsvp := &domain.EventRSVP{
			EventID:     eventID,
			UserID:      userID,
			Status:      status,
			RespondedAt: time.Now().UTC(),
		}

		outcome := domain.OutcomeCreated
		if existing == nil {
			err = repos.InsertRSVP(ctx, rsvp)
		} else {
			outcome = domain.OutcomeUpdated
			err = repos.UpdateRSVP(ctx, rsvp)
		}
		if err != nil {
			return err
		}

		resp = &dto.RSVPResponse{
			EventID:     eventID,
			UserID:      userID,
			Status:      string(status),
			Outcome:     string(outcome),
			Reaffirmed:  decision.Reaffirmed,
			Accepted:    acceptedAfter(accepted, existing, status),
			Capacity:    event.Capacity,
			RespondedAt: rsvp.RespondedAt,
		}
		return nil
	})

	log := logger.Get().WithContext(ctx)

	if err != nil {
		if decision.Outcome == arbiter.OutcomeRejected {
			metrics.RecordRSVPDecision(string(decision.Outcome), decision.Reason)
			span.SetAttributes(attribute.String("reason", decision.Reason))
			span.SetStatus(codes.Error, decision.Reason)
			s.publishRSVP(ctx, &domain.EventRSVP{EventID: eventID, UserID: userID, Status: status}, decision)
			log.Info("RSVP rejected",
				zap.String("event_id", eventID),
				zap.String("user_id", userID),
				zap.String("reason", decision.Reason),
			)
			return nil, err
		}
		telemetry.RecordError(span, err, "rsvp admission failed")
		return nil, err
	}

	metrics.RecordRSVPDecision(string(decision.Outcome), decision.Reason)
	s.publishRSVP(ctx, &domain.EventRSVP{EventID: eventID, UserID: userID, Status: status, RespondedAt: resp.RespondedAt}, decision)

	log.Info("RSVP recorded",
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.String("status", resp.Status),
		zap.String("outcome", resp.Outcome),
		zap.Int("accepted", resp.Accepted),
		zap.Int("capacity", resp.Capacity),
	)

	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// List returns every RSVP of an event
func (s *rsvpService) List(ctx context.Context, eventID string) (*dto.RSVPListResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.rsvp.list")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err, "get event failed")
		return nil, err
	}

	rsvps, err := s.store.ListRSVPs(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err, "list rsvps failed")
		return nil, err
	}

	resp := &dto.RSVPListResponse{
		EventID:  eventID,
		Capacity: event.Capacity,
		RSVPs:    make([]dto.RSVPItem, 0, len(rsvps)),
	}
	for _, r := range rsvps {
		if r.Status == domain.RSVPAccepted {
			resp.Accepted++
		}
		resp.RSVPs = append(resp.RSVPs, dto.RSVPItemFromDomain(r))
	}

	span.SetStatus(codes.Ok, "")
	return resp, nil
}

func (s *rsvpService) publishRSVP(ctx context.Context, rsvp *domain.EventRSVP, d arbiter.RSVPDecision) {
	if err := s.publisher.PublishRSVPDecided(ctx, rsvp, string(d.Outcome), d.Reason); err != nil {
		logger.Get().WithContext(ctx).Warn("Failed to publish RSVP decision",
			zap.String("event_id", rsvp.EventID),
			zap.Error(err),
		)
	}
}

// acceptedAfter is the ACCEPTED count once the upsert lands
func acceptedAfter(before int, existing *domain.EventRSVP, status domain.RSVPStatus) int {
	n := before
	if existing != nil && existing.Status == domain.RSVPAccepted {
		n--
	}
	if status == domain.RSVPAccepted {
		n++
	}
	return n
}
