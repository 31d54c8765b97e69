package handler

import (
	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/dto"
	"github.com/Incognitol07/event-management-system-sub001/internal/service"
	"github.com/Incognitol07/event-management-system-sub001/pkg/middleware"
	"github.com/Incognitol07/event-management-system-sub001/pkg/response"
	"github.com/Incognitol07/event-management-system-sub001/pkg/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RSVPHandler handles RSVP HTTP requests
type RSVPHandler struct {
	rsvpService service.RSVPService
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(rsvpService service.RSVPService) *RSVPHandler {
	return &RSVPHandler{rsvpService: rsvpService}
}

// Respond handles PUT /events/:id/rsvp.
// The caller is always the attendee; X-User-ID is required.
func (h *RSVPHandler) Respond(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.rsvp.respond")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		span.SetStatus(codes.Error, "unauthorized")
		response.Unauthorized(c, "X-User-ID header is required")
		return
	}

	var req dto.RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		invalidRequest(c, err)
		return
	}

	eventID := c.Param("id")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("user_id", userID),
		attribute.String("status", req.Status),
	)

	result, err := h.rsvpService.Respond(ctx, eventID, userID, domain.RSVPStatus(req.Status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// List handles GET /events/:id/rsvps
func (h *RSVPHandler) List(c *gin.Context) {
	result, err := h.rsvpService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
