// Package recurrence derives virtual occurrences of recurring events.
//
// Occurrences are never stored. They are computed from the anchor event for a
// date window and thrown away after use. All dates are UTC midnights.
//
// MONTHLY events recur on the anchor's day number. Months without that day
// are skipped, so an event anchored on the 31st only recurs in 31-day months
// and never drifts onto the 28th or 30th. This matches RFC 5545.
package recurrence

import (
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/teambition/rrule-go"
)

// DefaultMaxInstances caps a single expansion
const DefaultMaxInstances = 5000

// ComputeInstances returns the occurrences of base within
// [windowStart, windowEnd] in ascending date order. The anchor date itself is
// never included. Non-recurring events yield an empty result.
func ComputeInstances(base *domain.BaseEvent, windowStart, windowEnd time.Time) []domain.RecurringEventInstance {
	instances, _ := ComputeInstancesCapped(base, windowStart, windowEnd, DefaultMaxInstances)
	return instances
}

// ComputeInstancesCapped is ComputeInstances with an explicit cap. It reports
// whether the result was truncated.
func ComputeInstancesCapped(base *domain.BaseEvent, windowStart, windowEnd time.Time, maxInstances int) ([]domain.RecurringEventInstance, bool) {
	dates, truncated := occurrenceDates(base, windowStart, windowEnd, maxInstances)
	if len(dates) == 0 {
		return []domain.RecurringEventInstance{}, truncated
	}

	out := make([]domain.RecurringEventInstance, 0, len(dates))
	for _, d := range dates {
		out = append(out, newInstance(base, d))
	}
	return out, truncated
}

// IsOccurrenceDate reports whether target is an occurrence of base: strictly
// after the anchor, not after the recurrence end, and on the rule's period.
func IsOccurrenceDate(base *domain.BaseEvent, target time.Time) bool {
	if base == nil || !base.Recurs() {
		return false
	}

	anchor := domain.DateOf(base.Date)
	target = domain.DateOf(target)

	if !target.After(anchor) {
		return false
	}
	if base.RecurrenceEnd != nil && target.After(domain.DateOf(*base.RecurrenceEnd)) {
		return false
	}

	switch base.RecurrenceType {
	case domain.RecurrenceDaily:
		return true
	case domain.RecurrenceWeekly:
		return daysBetween(anchor, target)%7 == 0
	case domain.RecurrenceMonthly:
		return target.Day() == anchor.Day()
	}
	return false
}

// GenerateVirtualInstance builds the occurrence of base on date, or fails with
// domain.ErrNotAnOccurrence.
func GenerateVirtualInstance(base *domain.BaseEvent, date time.Time) (domain.RecurringEventInstance, error) {
	if !IsOccurrenceDate(base, date) {
		return domain.RecurringEventInstance{}, domain.ErrNotAnOccurrence
	}
	return newInstance(base, domain.DateOf(date)), nil
}

func newInstance(base *domain.BaseEvent, date time.Time) domain.RecurringEventInstance {
	inst := domain.RecurringEventInstance{
		BaseEvent:     *base,
		InstanceDate:  date,
		ParentEventID: base.ID,
	}
	if base.RecurrenceEnd != nil {
		end := *base.RecurrenceEnd
		inst.RecurrenceEnd = &end
	}
	return inst
}

func occurrenceDates(base *domain.BaseEvent, windowStart, windowEnd time.Time, maxInstances int) ([]time.Time, bool) {
	if base == nil || !base.Recurs() {
		return nil, false
	}

	windowStart = domain.DateOf(windowStart)
	windowEnd = domain.DateOf(windowEnd)
	if windowEnd.Before(windowStart) {
		return nil, false
	}

	anchor := domain.DateOf(base.Date)
	if !windowEnd.After(anchor) {
		return nil, false
	}

	r, err := rule(base, windowEnd)
	if err != nil {
		return nil, false
	}

	dates := r.Between(windowStart, windowEnd, true)
	if len(dates) > 0 && dates[0].Equal(anchor) {
		dates = dates[1:]
	}

	if maxInstances <= 0 {
		maxInstances = DefaultMaxInstances
	}
	if len(dates) > maxInstances {
		return dates[:maxInstances], true
	}
	return dates, false
}

// rule always carries an explicit UNTIL. rrule-go otherwise stops at
// Dtstart plus the largest time.Duration, about 290 years out.
func rule(base *domain.BaseEvent, windowEnd time.Time) (*rrule.RRule, error) {
	until := windowEnd
	if base.RecurrenceEnd != nil {
		if end := domain.DateOf(*base.RecurrenceEnd); end.Before(until) {
			until = end
		}
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:    frequency(base.RecurrenceType),
		Dtstart: domain.DateOf(base.Date),
		Until:   until,
	})
}

func frequency(t domain.RecurrenceType) rrule.Frequency {
	switch t {
	case domain.RecurrenceWeekly:
		return rrule.WEEKLY
	case domain.RecurrenceMonthly:
		return rrule.MONTHLY
	default:
		return rrule.DAILY
	}
}

// daysBetween counts calendar days between two UTC midnights. Unix seconds
// avoid the ~290 year saturation of time.Time.Sub.
func daysBetween(from, to time.Time) int64 {
	return (to.Unix() - from.Unix()) / secondsPerDay
}

const secondsPerDay = 24 * 60 * 60
