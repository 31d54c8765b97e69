package recurrence

import (
	"testing"
	"time"

	"github.com/Incognitol07/event-management-system-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func recurring(anchor time.Time, typ domain.RecurrenceType, end *time.Time) *domain.BaseEvent {
	return &domain.BaseEvent{
		ID:             "ev-anchor",
		Title:          "Chess club",
		Date:           anchor,
		StartTime:      18 * time.Hour,
		EndTime:        20 * time.Hour,
		Capacity:       30,
		IsApproved:     true,
		IsRecurring:    true,
		RecurrenceType: typ,
		RecurrenceEnd:  end,
	}
}

func instanceDates(in []domain.RecurringEventInstance) []string {
	out := make([]string, 0, len(in))
	for _, i := range in {
		out = append(out, domain.FormatDate(i.InstanceDate))
	}
	return out
}

func TestComputeInstances_WeeklyScenario(t *testing.T) {
	end := date(2024, 2, 5)
	base := recurring(date(2024, 1, 15), domain.RecurrenceWeekly, &end)

	got := ComputeInstances(base, date(2024, 1, 1), date(2024, 2, 29))

	assert.Equal(t, []string{"2024-01-22", "2024-01-29", "2024-02-05"}, instanceDates(got))
	for _, inst := range got {
		assert.Equal(t, base.ID, inst.ParentEventID)
		assert.Equal(t, base.Capacity, inst.Capacity)
		assert.Equal(t, 18*time.Hour, inst.StartTime)
	}
}

func TestComputeInstances_Daily(t *testing.T) {
	base := recurring(date(2024, 2, 27), domain.RecurrenceDaily, nil)

	got := ComputeInstances(base, date(2024, 2, 1), date(2024, 3, 2))

	assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, instanceDates(got))
}

func TestComputeInstances_MonthlySkipsShortMonths(t *testing.T) {
	base := recurring(date(2024, 1, 31), domain.RecurrenceMonthly, nil)

	got := ComputeInstances(base, date(2024, 1, 1), date(2024, 12, 31))

	assert.Equal(t, []string{
		"2024-03-31", "2024-05-31", "2024-07-31", "2024-08-31", "2024-10-31", "2024-12-31",
	}, instanceDates(got))
}

func TestComputeInstances_MonthlyMidMonth(t *testing.T) {
	base := recurring(date(2023, 11, 15), domain.RecurrenceMonthly, nil)

	got := ComputeInstances(base, date(2024, 1, 1), date(2024, 3, 31))

	assert.Equal(t, []string{"2024-01-15", "2024-02-15", "2024-03-15"}, instanceDates(got))
}

func TestComputeInstances_NonRecurringIsEmpty(t *testing.T) {
	base := &domain.BaseEvent{ID: "one-off", Date: date(2024, 1, 15), Capacity: 5}

	got := ComputeInstances(base, date(2024, 1, 1), date(2024, 12, 31))

	assert.NotNil(t, got)
	assert.Empty(t, got)

	// Flag set without a type is also a no-op
	base.IsRecurring = true
	assert.Empty(t, ComputeInstances(base, date(2024, 1, 1), date(2024, 12, 31)))
}

func TestComputeInstances_EmptyWindows(t *testing.T) {
	end := date(2024, 2, 5)
	base := recurring(date(2024, 1, 15), domain.RecurrenceWeekly, &end)

	assert.Empty(t, ComputeInstances(base, date(2024, 2, 1), date(2024, 1, 1)), "inverted window")
	assert.Empty(t, ComputeInstances(base, date(2023, 1, 1), date(2024, 1, 15)), "window ends on anchor")
	assert.Empty(t, ComputeInstances(base, date(2024, 2, 6), date(2024, 3, 1)), "window after recurrence end")
	assert.Empty(t, ComputeInstances(base, date(2024, 1, 23), date(2024, 1, 28)), "window between steps")
}

func TestComputeInstances_WindowBoundsInclusive(t *testing.T) {
	base := recurring(date(2024, 1, 15), domain.RecurrenceWeekly, nil)

	got := ComputeInstances(base, date(2024, 1, 22), date(2024, 1, 29))

	assert.Equal(t, []string{"2024-01-22", "2024-01-29"}, instanceDates(got))
}

func TestComputeInstances_IgnoresTimeOfDayInWindow(t *testing.T) {
	base := recurring(date(2024, 1, 15), domain.RecurrenceDaily, nil)
	loc := time.FixedZone("UTC-5", -5*3600)

	got := ComputeInstances(base,
		time.Date(2024, 1, 20, 23, 0, 0, 0, loc),
		time.Date(2024, 1, 21, 1, 0, 0, 0, loc))

	assert.Equal(t, []string{"2024-01-20", "2024-01-21"}, instanceDates(got))
}

func TestComputeInstancesCapped(t *testing.T) {
	base := recurring(date(2024, 1, 1), domain.RecurrenceDaily, nil)

	got, truncated := ComputeInstancesCapped(base, date(2024, 1, 1), date(2024, 12, 31), 10)
	assert.True(t, truncated)
	require.Len(t, got, 10)
	assert.Equal(t, "2024-01-02", domain.FormatDate(got[0].InstanceDate))

	got, truncated = ComputeInstancesCapped(base, date(2024, 1, 1), date(2024, 1, 5), 10)
	assert.False(t, truncated)
	assert.Len(t, got, 4)
}

func TestComputeInstances_NeverEmitsAnchorAndStrictlyIncreases(t *testing.T) {
	anchors := []time.Time{date(2024, 1, 15), date(2024, 1, 31), date(2023, 2, 28), date(2024, 2, 29)}
	types := []domain.RecurrenceType{domain.RecurrenceDaily, domain.RecurrenceWeekly, domain.RecurrenceMonthly}

	for _, anchor := range anchors {
		for _, typ := range types {
			base := recurring(anchor, typ, nil)
			got := ComputeInstances(base, anchor.AddDate(0, -1, 0), anchor.AddDate(2, 0, 0))

			require.NotEmpty(t, got, "%s %s", typ, domain.FormatDate(anchor))
			for i, inst := range got {
				assert.False(t, inst.InstanceDate.Equal(anchor), "%s emitted anchor", typ)
				if i > 0 {
					assert.True(t, inst.InstanceDate.After(got[i-1].InstanceDate),
						"%s not strictly increasing at %d", typ, i)
				}
			}
		}
	}
}

func TestIsOccurrenceDate_AgreesWithComputeInstances(t *testing.T) {
	recEnd := date(2025, 3, 10)
	bases := []*domain.BaseEvent{
		recurring(date(2024, 1, 15), domain.RecurrenceDaily, &recEnd),
		recurring(date(2024, 1, 15), domain.RecurrenceWeekly, nil),
		recurring(date(2024, 1, 31), domain.RecurrenceMonthly, nil),
		recurring(date(2024, 2, 29), domain.RecurrenceMonthly, &recEnd),
		recurring(date(2024, 1, 30), domain.RecurrenceMonthly, nil),
	}

	for _, base := range bases {
		for d := date(2023, 12, 1); d.Before(date(2025, 6, 1)); d = d.AddDate(0, 0, 1) {
			inWindow := len(ComputeInstances(base, d, d)) == 1
			assert.Equal(t, inWindow, IsOccurrenceDate(base, d),
				"%s anchored %s disagrees on %s", base.RecurrenceType, domain.FormatDate(base.Date), domain.FormatDate(d))
		}
	}
}

func TestIsOccurrenceDate(t *testing.T) {
	end := date(2024, 2, 5)
	weekly := recurring(date(2024, 1, 15), domain.RecurrenceWeekly, &end)

	assert.False(t, IsOccurrenceDate(weekly, date(2024, 1, 15)), "anchor")
	assert.False(t, IsOccurrenceDate(weekly, date(2024, 1, 8)), "before anchor")
	assert.True(t, IsOccurrenceDate(weekly, date(2024, 1, 22)))
	assert.True(t, IsOccurrenceDate(weekly, date(2024, 2, 5)), "recurrence end is inclusive")
	assert.False(t, IsOccurrenceDate(weekly, date(2024, 2, 12)), "past recurrence end")
	assert.False(t, IsOccurrenceDate(weekly, date(2024, 1, 23)), "off period")
	assert.True(t, IsOccurrenceDate(weekly, time.Date(2024, 1, 29, 17, 45, 0, 0, time.UTC)), "time of day ignored")

	assert.False(t, IsOccurrenceDate(nil, date(2024, 1, 22)))
	assert.False(t, IsOccurrenceDate(&domain.BaseEvent{Date: date(2024, 1, 15)}, date(2024, 1, 16)))
}

func TestGenerateVirtualInstance(t *testing.T) {
	base := recurring(date(2024, 1, 15), domain.RecurrenceWeekly, nil)

	inst, err := GenerateVirtualInstance(base, date(2024, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 4), inst.InstanceDate)
	assert.Equal(t, base.ID, inst.ParentEventID)
	assert.Equal(t, time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC), inst.StartsAt())

	_, err = GenerateVirtualInstance(base, date(2024, 3, 5))
	assert.ErrorIs(t, err, domain.ErrNotAnOccurrence)
}

func TestGenerateVirtualInstance_DoesNotAliasBase(t *testing.T) {
	end := date(2024, 12, 31)
	base := recurring(date(2024, 1, 1), domain.RecurrenceDaily, &end)

	inst, err := GenerateVirtualInstance(base, date(2024, 1, 2))
	require.NoError(t, err)

	*inst.RecurrenceEnd = date(2030, 1, 1)
	assert.Equal(t, date(2024, 12, 31), *base.RecurrenceEnd)
}

func TestComputeInstances_CenturiesAfterAnchor(t *testing.T) {
	anchor := date(2024, 1, 1)
	weeklyHit := anchor.AddDate(0, 0, 7*15654)

	tests := []struct {
		typ    domain.RecurrenceType
		target time.Time
	}{
		{domain.RecurrenceDaily, date(2324, 1, 1)},
		{domain.RecurrenceWeekly, weeklyHit},
		{domain.RecurrenceMonthly, date(2324, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			base := recurring(anchor, tt.typ, nil)

			got := ComputeInstances(base, tt.target, tt.target)
			assert.Equal(t, []string{domain.FormatDate(tt.target)}, instanceDates(got))
			assert.True(t, IsOccurrenceDate(base, tt.target))

			for d := tt.target.AddDate(0, 0, -7); !d.After(tt.target.AddDate(0, 0, 7)); d = d.AddDate(0, 0, 1) {
				inWindow := len(ComputeInstances(base, d, d)) == 1
				assert.Equal(t, inWindow, IsOccurrenceDate(base, d), "disagree on %s", domain.FormatDate(d))
			}

			window := ComputeInstances(base, tt.target.AddDate(0, 0, -13), tt.target)
			assert.NotEmpty(t, window)
		})
	}
}
