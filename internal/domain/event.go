package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// RecurrenceType is the stepping rule of a recurring event
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
)

// IsValid reports whether r is a known recurrence type
func (r RecurrenceType) IsValid() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Role is the caller's role as forwarded by the gateway
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

// BaseEvent is a stored event. For recurring events it is the anchor from
// which virtual occurrences are derived. Date is a UTC midnight; StartTime and
// EndTime are offsets from that midnight.
type BaseEvent struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	CreatorID      string         `json:"creator_id"`
	VenueID        string         `json:"venue_id"`
	Date           time.Time      `json:"date"`
	StartTime      time.Duration  `json:"start_time"`
	EndTime        time.Duration  `json:"end_time"`
	Capacity       int            `json:"capacity"`
	IsApproved     bool           `json:"is_approved"`
	IsRecurring    bool           `json:"is_recurring"`
	RecurrenceType RecurrenceType `json:"recurrence_type,omitempty"`
	RecurrenceEnd  *time.Time     `json:"recurrence_end,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Recurs reports whether occurrences can be derived from the event
func (e *BaseEvent) Recurs() bool {
	return e.IsRecurring && e.RecurrenceType.IsValid()
}

// StartsAt returns the absolute start instant on the anchor date
func (e *BaseEvent) StartsAt() time.Time {
	return e.Date.Add(e.StartTime)
}

// EndsAt returns the absolute end instant on the anchor date
func (e *BaseEvent) EndsAt() time.Time {
	return e.Date.Add(e.EndTime)
}

// Validate checks the invariants a stored event must hold
func (e *BaseEvent) Validate() error {
	if e.ID == "" {
		return ErrInvalidEventID
	}
	if e.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidEvent)
	}
	if e.EndTime < e.StartTime {
		return fmt.Errorf("%w: end time before start time", ErrInvalidEvent)
	}
	if e.IsRecurring && !e.RecurrenceType.IsValid() {
		return fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidEvent, e.RecurrenceType)
	}
	if !e.IsRecurring && (e.RecurrenceType != "" || e.RecurrenceEnd != nil) {
		return fmt.Errorf("%w: recurrence set on a non-recurring event", ErrInvalidEvent)
	}
	if e.RecurrenceEnd != nil && e.RecurrenceEnd.Before(e.Date) {
		return fmt.Errorf("%w: recurrence end before anchor date", ErrInvalidEvent)
	}
	return nil
}

// RecurringEventInstance is a virtual occurrence of a recurring event.
// It is computed per query and never persisted.
type RecurringEventInstance struct {
	BaseEvent
	InstanceDate  time.Time `json:"instance_date"`
	ParentEventID string    `json:"parent_event_id"`
}

// StartsAt returns the absolute start instant on the instance date
func (i *RecurringEventInstance) StartsAt() time.Time {
	return i.InstanceDate.Add(i.StartTime)
}

// EndsAt returns the absolute end instant on the instance date
func (i *RecurringEventInstance) EndsAt() time.Time {
	return i.InstanceDate.Add(i.EndTime)
}

// DateOf returns t's calendar date as UTC midnight
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into UTC midnight
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDate reports whether a and b fall on the same calendar date
func SameDate(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}
