package dto

import (
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
)

// RSVPRequest represents request to record an attendance answer
type RSVPRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING ACCEPTED DECLINED"`
}

// RSVPResponse represents response after an RSVP decision
type RSVPResponse struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	Outcome     string    `json:"outcome"`    // CREATED or UPDATED
	Reaffirmed  bool      `json:"reaffirmed"` // ACCEPTED re-sent against a full event
	Accepted    int       `json:"accepted"`   // ACCEPTED count after the write
	Capacity    int       `json:"capacity"`
	RespondedAt time.Time `json:"responded_at"`
}

// RSVPItem represents one RSVP in a listing
type RSVPItem struct {
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	RespondedAt time.Time `json:"responded_at"`
}

// RSVPListResponse represents every RSVP of an event
type RSVPListResponse struct {
	EventID  string     `json:"event_id"`
	Capacity int        `json:"capacity"`
	Accepted int        `json:"accepted"`
	RSVPs    []RSVPItem `json:"rsvps"`
}

// RSVPItemFromDomain converts a domain RSVP to RSVPItem
func RSVPItemFromDomain(r *domain.EventRSVP) RSVPItem {
	return RSVPItem{
		UserID:      r.UserID,
		Status:      string(r.Status),
		RespondedAt: r.RespondedAt,
	}
}
