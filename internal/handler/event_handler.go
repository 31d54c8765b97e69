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

// EventHandler handles event HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// Create handles POST /events
func (h *EventHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		invalidRequest(c, err)
		return
	}

	userID, _ := middleware.GetUserID(c)
	result, err := h.eventService.Create(ctx, &req, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Created(c, result)
}

// Get handles GET /events/:id
func (h *EventHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	span.SetAttributes(attribute.String("event_id", eventID))

	result, err := h.eventService.Get(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// Approve handles POST /events/:id/approve
func (h *EventHandler) Approve(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.approve")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	eventID := c.Param("id")
	role := domain.Role(middleware.GetUserRole(c))
	span.SetAttributes(attribute.String("event_id", eventID), attribute.String("role", string(role)))

	result, err := h.eventService.Approve(ctx, eventID, role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// ResourceHandler handles resource registration
type ResourceHandler struct {
	resourceService service.ResourceService
}

// NewResourceHandler creates a new resource handler
func NewResourceHandler(resourceService service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

// Create handles POST /resources
func (h *ResourceHandler) Create(c *gin.Context) {
	var req dto.CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.resourceService.Create(c.Request.Context(), &req, domain.Role(middleware.GetUserRole(c)))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Created(c, result)
}

// Get handles GET /resources/:id
func (h *ResourceHandler) Get(c *gin.Context) {
	result, err := h.resourceService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
