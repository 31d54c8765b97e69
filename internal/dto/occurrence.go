package dto

import (
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
)

// OccurrenceQuery binds the ?from=&to= window of occurrence listings
type OccurrenceQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// OccurrenceResponse represents one virtual occurrence
type OccurrenceResponse struct {
	ParentEventID string    `json:"parent_event_id"`
	Date          string    `json:"date"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at"`
	Title         string    `json:"title"`
	Capacity      int       `json:"capacity"`
	IsApproved    bool      `json:"is_approved"`
}

// OccurrenceFromDomain converts a virtual instance to OccurrenceResponse
func OccurrenceFromDomain(i *domain.RecurringEventInstance) *OccurrenceResponse {
	return &OccurrenceResponse{
		ParentEventID: i.ParentEventID,
		Date:          domain.FormatDate(i.InstanceDate),
		StartsAt:      i.StartsAt(),
		EndsAt:        i.EndsAt(),
		Title:         i.Title,
		Capacity:      i.Capacity,
		IsApproved:    i.IsApproved,
	}
}

// OccurrenceListResponse represents the occurrences of an event in a window
type OccurrenceListResponse struct {
	EventID     string                `json:"event_id"`
	From        string                `json:"from"`
	To          string                `json:"to"`
	Truncated   bool                  `json:"truncated"`
	Occurrences []*OccurrenceResponse `json:"occurrences"`
}
