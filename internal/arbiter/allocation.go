package arbiter

import (
	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
)

// AllocationRequest is everything the resource decision needs
type AllocationRequest struct {
	Event    *domain.BaseEvent
	Resource *domain.Resource
	// ApprovedForDate are allocations of Resource on the event's date.
	// Entries that are not APPROVED, fall on another date, or belong to the
	// requesting event itself are ignored.
	ApprovedForDate []domain.EventResourceAllocation
	Quantity        int
	RequesterRole   domain.Role
}

// AllocationDecision is the result of Allocate
type AllocationDecision struct {
	Outcome   Outcome
	Reason    string
	Status    domain.AllocationStatus
	Requested int
	Allocated int
	Available int
}

// Granted reports whether the caller may upsert the allocation
func (d AllocationDecision) Granted() bool {
	return d.Outcome == OutcomeAllocated
}

// Err returns the domain error behind a rejection, nil otherwise
func (d AllocationDecision) Err() error {
	if d.Reason == domain.ReasonInsufficientResource {
		return &domain.InsufficientResourceError{Requested: d.Requested, Available: d.Available}
	}
	return nil
}

// Allocate decides whether Quantity units of the resource fit in what is left
// for the event's calendar date. Events on the same date share one pool even
// when their times do not overlap. Admin requests are approved directly, all
// others wait as PENDING.
func Allocate(req AllocationRequest) AllocationDecision {
	allocated := AllocatedOnDate(req.Event, req.Resource.ID, req.ApprovedForDate)
	available := req.Resource.TotalCount - allocated

	d := AllocationDecision{
		Requested: req.Quantity,
		Allocated: allocated,
		Available: available,
	}

	if req.Quantity > available {
		d.Outcome = OutcomeRejected
		d.Reason = domain.ReasonInsufficientResource
		return d
	}

	d.Outcome = OutcomeAllocated
	d.Status = domain.AllocationPending
	if AutoApprove(req.RequesterRole) {
		d.Status = domain.AllocationApproved
	}
	return d
}

// AllocatedOnDate sums APPROVED quantities of resourceID on event's date,
// leaving out event's own allocation, which an upsert would replace.
func AllocatedOnDate(event *domain.BaseEvent, resourceID string, allocations []domain.EventResourceAllocation) int {
	total := 0
	for _, a := range allocations {
		if a.Status != domain.AllocationApproved || a.ResourceID != resourceID {
			continue
		}
		if a.EventID == event.ID {
			continue
		}
		if !domain.SameDate(a.EventDate, event.Date) {
			continue
		}
		total += a.QuantityNeeded
	}
	return total
}
