package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/Incognitol07/event-management-system-sub001/internal/dto"
	"github.com/Incognitol07/event-management-system-sub001/pkg/logger"
	"github.com/Incognitol07/event-management-system-sub001/pkg/response"
	"github.com/Incognitol07/event-management-system-sub001/pkg/retry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusClientClosedRequest is the nginx convention for a client that went away
const StatusClientClosedRequest = 499

// handleError maps service errors to HTTP responses. Rejections carry their
// reason code and the numbers behind the decision.
func handleError(c *gin.Context, err error) {
	var (
		full         *domain.EventFullError
		insufficient *domain.InsufficientResourceError
	)

	switch {
	case errors.As(err, &full):
		response.Error(c, http.StatusConflict, domain.ReasonEventFull, err.Error(),
			dto.EventFullDetails{Capacity: full.Capacity, Accepted: full.Accepted})
	case errors.As(err, &insufficient):
		response.Error(c, http.StatusConflict, domain.ReasonInsufficientResource, err.Error(),
			dto.InsufficientResourceDetails{Requested: insufficient.Requested, Available: insufficient.Available})
	case errors.Is(err, domain.ErrEventNotApproved):
		response.Error(c, http.StatusConflict, domain.ReasonEventNotApproved, err.Error(), nil)
	case errors.Is(err, domain.ErrNotAnOccurrence):
		response.Error(c, http.StatusNotFound, domain.ReasonNotAnOccurrence, err.Error(), nil)
	case domain.IsNotFoundError(err):
		response.NotFound(c, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, domain.ErrInvalidAllocationStatus):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error(), nil)
	case errors.Is(err, domain.ErrAlreadyExists):
		response.Error(c, http.StatusConflict, domain.ReasonAlreadyExists, err.Error(), nil)
	case domain.IsValidationError(err):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		c.Header("Retry-After", "1")
		response.Error(c, http.StatusServiceUnavailable, "TIMEOUT", "Request timed out, retry shortly", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, retry.ErrContextCanceled):
		// Nobody is listening any more, so skip the error log
		logger.Get().WithContext(c.Request.Context()).Debug("Request canceled by client",
			zap.String("path", c.FullPath()),
		)
		response.Error(c, StatusClientClosedRequest, "REQUEST_CANCELED", "Request canceled", nil)
	case errors.Is(err, domain.ErrLockNotAcquired),
		errors.Is(err, retry.ErrMaxRetriesExceeded):
		c.Header("Retry-After", "1")
		response.Error(c, http.StatusServiceUnavailable, "BUSY", "Too much contention, retry shortly", nil)
	default:
		logger.Get().WithContext(c.Request.Context()).Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		response.InternalError(c)
	}
}

func invalidRequest(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}
