package dto

import (
	"fmt"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
)

// ClockLayout renders start and end offsets as wall-clock times
const ClockLayout = "15:04"

// EventResponse represents an event in API response
type EventResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	CreatorID      string  `json:"creator_id,omitempty"`
	VenueID        string  `json:"venue_id,omitempty"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	Capacity       int     `json:"capacity"`
	IsApproved     bool    `json:"is_approved"`
	IsRecurring    bool    `json:"is_recurring"`
	RecurrenceType string  `json:"recurrence_type,omitempty"`
	RecurrenceEnd  *string `json:"recurrence_end,omitempty"`
}

// EventFromDomain converts a domain event to EventResponse
func EventFromDomain(e *domain.BaseEvent) *EventResponse {
	resp := &EventResponse{
		ID:             e.ID,
		Title:          e.Title,
		CreatorID:      e.CreatorID,
		VenueID:        e.VenueID,
		Date:           domain.FormatDate(e.Date),
		StartTime:      FormatClock(e.StartTime),
		EndTime:        FormatClock(e.EndTime),
		Capacity:       e.Capacity,
		IsApproved:     e.IsApproved,
		IsRecurring:    e.IsRecurring,
		RecurrenceType: string(e.RecurrenceType),
	}
	if e.RecurrenceEnd != nil {
		end := domain.FormatDate(*e.RecurrenceEnd)
		resp.RecurrenceEnd = &end
	}
	return resp
}

// ApproveEventResponse represents response after approving an event
type ApproveEventResponse struct {
	EventID    string `json:"event_id"`
	IsApproved bool   `json:"is_approved"`
}

// FormatClock renders an offset from midnight as HH:MM
func FormatClock(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// ParseClock parses HH:MM into an offset from midnight
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// CreateEventRequest represents request to create an event
type CreateEventRequest struct {
	Title          string `json:"title" binding:"required,max=200"`
	VenueID        string `json:"venue_id,omitempty"`
	Date           string `json:"date" binding:"required"`
	StartTime      string `json:"start_time" binding:"required"`
	EndTime        string `json:"end_time" binding:"required"`
	Capacity       int    `json:"capacity" binding:"required,min=1"`
	IsRecurring    bool   `json:"is_recurring"`
	RecurrenceType string `json:"recurrence_type,omitempty" binding:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	RecurrenceEnd  string `json:"recurrence_end,omitempty"`
}

// ToDomain parses the request into an event without ID or creator
func (r *CreateEventRequest) ToDomain() (*domain.BaseEvent, error) {
	if r == nil {
		return nil, domain.ErrInvalidEvent
	}
	date, err := domain.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}
	end, err := ParseClock(r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidEvent, err)
	}

	e := &domain.BaseEvent{
		Title:          r.Title,
		VenueID:        r.VenueID,
		Date:           date,
		StartTime:      start,
		EndTime:        end,
		Capacity:       r.Capacity,
		IsRecurring:    r.IsRecurring,
		RecurrenceType: domain.RecurrenceType(r.RecurrenceType),
	}
	if r.RecurrenceEnd != "" {
		recEnd, err := domain.ParseDate(r.RecurrenceEnd)
		if err != nil {
			return nil, err
		}
		e.RecurrenceEnd = &recEnd
	}
	return e, nil
}
