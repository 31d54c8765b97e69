package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/dto"
	"github.com/Incognitol07/event-management-system-sub001/internal/metrics"
	"github.com/Incognitol07/event-management-system-sub001/internal/recurrence"
	"github.com/Incognitol07/event-management-system-sub001/internal/repository"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	ical "github.com/arran4/golang-ical"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CalendarService defines the interface for virtual occurrence queries
type CalendarService interface {
	// Occurrences lists the virtual instances of an event between from and to,
	// both inclusive. Zero bounds fall back to today and the default window.
	Occurrences(ctx context.Context, eventID string, from, to time.Time) (*dto.OccurrenceListResponse, error)

	// Occurrence materializes the instance of an event on date
	Occurrence(ctx context.Context, eventID string, date time.Time) (*dto.OccurrenceResponse, error)

	// ICS renders the anchor and the occurrences in the window as iCalendar
	ICS(ctx context.Context, eventID string, from, to time.Time) ([]byte, error)
}

// CalendarServiceConfig bounds occurrence expansion
type CalendarServiceConfig struct {
	MaxInstances      int
	MaxWindowDays     int
	DefaultWindowDays int
	ProductID         string
}

// calendarService implements CalendarService
type calendarService struct {
	store  repository.EventRepository
	config CalendarServiceConfig
	now    func() time.Time
}

// NewCalendarService creates a new calendar service
func NewCalendarService(store repository.EventRepository, cfg *CalendarServiceConfig) CalendarService {
	c := CalendarServiceConfig{
		MaxInstances:      recurrence.DefaultMaxInstances,
		MaxWindowDays:     731,
		DefaultWindowDays: 90,
		ProductID:         "-//University Events//Event Service//EN",
	}
	if cfg != nil {
		if cfg.MaxInstances > 0 {
			c.MaxInstances = cfg.MaxInstances
		}
		if cfg.MaxWindowDays > 0 {
			c.MaxWindowDays = cfg.MaxWindowDays
		}
		if cfg.DefaultWindowDays > 0 {
			c.DefaultWindowDays = cfg.DefaultWindowDays
		}
		if cfg.ProductID != "" {
			c.ProductID = cfg.ProductID
		}
	}
	return &calendarService{
		store:  store,
		config: c,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Occurrences lists the virtual instances of an event within a window
func (s *calendarService) Occurrences(ctx context.Context, eventID string, from, to time.Time) (*dto.OccurrenceListResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.occurrences")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	x, err := s.expand(ctx, eventID, from, to)
	if err != nil {
		telemetry.RecordError(span, err, "expand failed")
		return nil, err
	}

	resp := &dto.OccurrenceListResponse{
		EventID:     x.event.ID,
		From:        domain.FormatDate(x.from),
		To:          domain.FormatDate(x.to),
		Truncated:   x.truncated,
		Occurrences: make([]*dto.OccurrenceResponse, 0, len(x.instances)),
	}
	for i := range x.instances {
		resp.Occurrences = append(resp.Occurrences, dto.OccurrenceFromDomain(&x.instances[i]))
	}

	span.SetAttributes(attribute.Int("count", len(x.instances)), attribute.Bool("truncated", x.truncated))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Occurrence materializes one instance
func (s *calendarService) Occurrence(ctx context.Context, eventID string, date time.Time) (*dto.OccurrenceResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.occurrence")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID), attribute.String("date", domain.FormatDate(date)))

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		telemetry.RecordError(span, err, "get event failed")
		return nil, err
	}

	inst, err := recurrence.GenerateVirtualInstance(event, date)
	if err != nil {
		span.SetStatus(codes.Error, "not an occurrence")
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.OccurrenceFromDomain(&inst), nil
}

// ICS renders an iCalendar feed with one VEVENT per date. The anchor is
// included when it falls inside the window.
func (s *calendarService) ICS(ctx context.Context, eventID string, from, to time.Time) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.calendar.ics")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	x, err := s.expand(ctx, eventID, from, to)
	if err != nil {
		telemetry.RecordError(span, err, "expand failed")
		return nil, err
	}
	event := x.event

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(s.config.ProductID)

	stamp := s.now()
	if !event.Date.Before(x.from) && !event.Date.After(x.to) {
		addVEvent(cal, event, event.Date, event.StartsAt(), event.EndsAt(), stamp)
	}
	for i := range x.instances {
		inst := &x.instances[i]
		addVEvent(cal, event, inst.InstanceDate, inst.StartsAt(), inst.EndsAt(), stamp)
	}

	span.SetStatus(codes.Ok, "")
	return []byte(cal.Serialize()), nil
}

func addVEvent(cal *ical.Calendar, event *domain.BaseEvent, date, start, end, stamp time.Time) {
	ve := cal.AddEvent(fmt.Sprintf("%s-%s", event.ID, date.Format("20060102")))
	ve.SetDtStampTime(stamp)
	ve.SetStartAt(start)
	ve.SetEndAt(end)
	ve.SetSummary(event.Title)
	if event.VenueID != "" {
		ve.SetLocation(event.VenueID)
	}
	if !event.IsApproved {
		ve.SetStatus(ical.ObjectStatusTentative)
	}
}

type expansion struct {
	event     *domain.BaseEvent
	instances []domain.RecurringEventInstance
	truncated bool
	from, to  time.Time
}

// expand validates the window and computes the capped instances
func (s *calendarService) expand(ctx context.Context, eventID string, from, to time.Time) (*expansion, error) {
	from, to, err := s.window(from, to)
	if err != nil {
		return nil, err
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	instances, truncated := recurrence.ComputeInstancesCapped(event, from, to, s.config.MaxInstances)
	metrics.RecordExpansion(len(instances), truncated)
	return &expansion{event: event, instances: instances, truncated: truncated, from: from, to: to}, nil
}

func (s *calendarService) window(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() {
		from = s.now()
	}
	from = domain.DateOf(from)
	if to.IsZero() {
		to = from.AddDate(0, 0, s.config.DefaultWindowDays)
	}
	to = domain.DateOf(to)

	if to.Before(from) {
		return from, to, fmt.Errorf("%w: to before from", domain.ErrInvalidWindow)
	}
	if to.Sub(from) > time.Duration(s.config.MaxWindowDays)*24*time.Hour {
		return from, to, fmt.Errorf("%w: window exceeds %d days", domain.ErrInvalidWindow, s.config.MaxWindowDays)
	}
	return from, to, nil
}
