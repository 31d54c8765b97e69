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

// AllocationHandler handles resource allocation HTTP requests
type AllocationHandler struct {
	allocationService service.AllocationService
}

// NewAllocationHandler creates a new allocation handler
func NewAllocationHandler(allocationService service.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocationService: allocationService}
}

// Request handles PUT /events/:id/resources/:resource_id.
// Admins are auto-approved, everyone else lands in PENDING.
func (h *AllocationHandler) Request(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.allocation.request")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		invalidRequest(c, err)
		return
	}
	req.EventID = c.Param("id")
	req.ResourceID = c.Param("resource_id")
	role := domain.Role(middleware.GetUserRole(c))

	span.SetAttributes(
		attribute.String("event_id", req.EventID),
		attribute.String("resource_id", req.ResourceID),
		attribute.Int("quantity", req.Quantity),
		attribute.String("role", string(role)),
	)

	result, err := h.allocationService.Request(ctx, &req, role)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// Review handles POST /events/:id/resources/:resource_id/review
func (h *AllocationHandler) Review(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.allocation.review")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.ReviewAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetStatus(codes.Error, "invalid request")
		invalidRequest(c, err)
		return
	}

	eventID, resourceID := c.Param("id"), c.Param("resource_id")
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("resource_id", resourceID),
		attribute.Bool("approve", *req.Approve),
	)

	result, err := h.allocationService.Review(ctx, eventID, resourceID, *req.Approve, req.Notes, domain.Role(middleware.GetUserRole(c)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, result)
}

// Cancel handles DELETE /events/:id/resources/:resource_id
func (h *AllocationHandler) Cancel(c *gin.Context) {
	result, err := h.allocationService.Cancel(c.Request.Context(), c.Param("id"), c.Param("resource_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

// List handles GET /events/:id/resources
func (h *AllocationHandler) List(c *gin.Context) {
	result, err := h.allocationService.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
