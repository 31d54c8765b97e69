package handler

import (
	"net/http"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/dto"
	"github.com/Incognitol07/event-management-system-sub001/internal/service"
	"github.com/Incognitol07/event-management-system-sub001/pkg/response"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CalendarHandler serves virtual occurrences of recurring events
type CalendarHandler struct {
	calendarService service.CalendarService
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendarService service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// List handles GET /events/:id/occurrences?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *CalendarHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.calendar.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	from, to, err := bindWindow(c)
	if err != nil {
		span.SetStatus(codes.Error, "invalid window")
		handleError(c, err)
		return
	}

	result, err := h.calendarService.Occurrences(ctx, eventID, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// Get handles GET /events/:id/occurrences/:date
func (h *CalendarHandler) Get(c *gin.Context) {
	date, err := domain.ParseDate(c.Param("date"))
	if err != nil {
		handleError(c, err)
		return
	}

	result, err := h.calendarService.Occurrence(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// ICS handles GET /events/:id/calendar.ics
func (h *CalendarHandler) ICS(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.calendar.ics")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	from, to, err := bindWindow(c)
	if err != nil {
		handleError(c, err)
		return
	}

	data, err := h.calendarService.ICS(ctx, c.Param("id"), from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	c.Header("Content-Disposition", `inline; filename="calendar.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// bindWindow parses the optional from/to query. Missing bounds stay zero.
func bindWindow(c *gin.Context) (time.Time, time.Time, error) {
	var q dto.OccurrenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidWindow
	}

	var from, to time.Time
	var err error
	if q.From != "" {
		if from, err = domain.ParseDate(q.From); err != nil {
			return from, to, err
		}
	}
	if q.To != "" {
		if to, err = domain.ParseDate(q.To); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}
