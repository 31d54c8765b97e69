package domain

import "time"

// RSVPStatus is a user's attendance answer
type RSVPStatus string

const (
	RSVPPending  RSVPStatus = "PENDING"
	RSVPAccepted RSVPStatus = "ACCEPTED"
	RSVPDeclined RSVPStatus = "DECLINED"
)

// IsValid reports whether s is a known RSVP status
func (s RSVPStatus) IsValid() bool {
	switch s {
	case RSVPPending, RSVPAccepted, RSVPDeclined:
		return true
	}
	return false
}

// EventRSVP is keyed by (EventID, UserID)
type EventRSVP struct {
	EventID     string     `json:"event_id"`
	UserID      string     `json:"user_id"`
	Status      RSVPStatus `json:"status"`
	RespondedAt time.Time  `json:"responded_at"`
}
