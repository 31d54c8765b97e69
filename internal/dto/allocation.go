package dto

import (
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
)

// AllocationRequest represents request to book a resource for an event.
// EventID and ResourceID come from the path.
type AllocationRequest struct {
	EventID    string `json:"-"`
	ResourceID string `json:"-"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	Notes      string `json:"notes,omitempty" binding:"max=500"`
}

// ReviewAllocationRequest represents an admin decision on a pending allocation
type ReviewAllocationRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Notes   string `json:"notes,omitempty" binding:"max=500"`
}

// AllocationResponse represents an allocation in API response
type AllocationResponse struct {
	EventID        string    `json:"event_id"`
	ResourceID     string    `json:"resource_id"`
	EventDate      string    `json:"event_date"`
	QuantityNeeded int       `json:"quantity_needed"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	Outcome        string    `json:"outcome,omitempty"` // CREATED or UPDATED on writes
	Available      *int      `json:"available,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AllocationFromDomain converts a domain allocation to AllocationResponse
func AllocationFromDomain(a *domain.EventResourceAllocation) *AllocationResponse {
	return &AllocationResponse{
		EventID:        a.EventID,
		ResourceID:     a.ResourceID,
		EventDate:      domain.FormatDate(a.EventDate),
		QuantityNeeded: a.QuantityNeeded,
		Status:         string(a.Status),
		Notes:          a.Notes,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AllocationListResponse represents every allocation of an event
type AllocationListResponse struct {
	EventID     string                `json:"event_id"`
	Allocations []*AllocationResponse `json:"allocations"`
}

// InsufficientResourceDetails is the error detail of an INSUFFICIENT_RESOURCE rejection
type InsufficientResourceDetails struct {
	Requested int `json:"requested"`
	Available int `json:"available"`
}

// EventFullDetails is the error detail of an EVENT_FULL rejection
type EventFullDetails struct {
	Capacity int `json:"capacity"`
	Accepted int `json:"accepted"`
}
