package domain

import "time"

// Resource is bookable inventory such as projectors or chairs
type Resource struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	TotalCount int       `json:"total_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// AllocationStatus is the lifecycle of a resource booking
type AllocationStatus string

const (
	AllocationPending   AllocationStatus = "PENDING"
	AllocationApproved  AllocationStatus = "APPROVED"
	AllocationDenied    AllocationStatus = "DENIED"
	AllocationCancelled AllocationStatus = "CANCELLED"
)

// IsValid reports whether s is a known allocation status
func (s AllocationStatus) IsValid() bool {
	switch s {
	case AllocationPending, AllocationApproved, AllocationDenied, AllocationCancelled:
		return true
	}
	return false
}

// EventResourceAllocation is keyed by (EventID, ResourceID).
// EventDate is the requesting event's anchor date, kept with the row so the
// per-date pool can be summed without joining events.
type EventResourceAllocation struct {
	EventID        string           `json:"event_id"`
	ResourceID     string           `json:"resource_id"`
	EventDate      time.Time        `json:"event_date"`
	QuantityNeeded int              `json:"quantity_needed"`
	Status         AllocationStatus `json:"status"`
	Notes          string           `json:"notes,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
