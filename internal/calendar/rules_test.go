package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quietbay/daybook/internal/calendar"
	"github.com/quietbay/daybook/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func weekdaySettings() domain.Settings {
	s := domain.DefaultSettings()
	s.AllowedWeekdays = []int{1, 2, 3, 4, 5} // Mon-Fri
	s.DisplayMonths = 3
	s.AllowSameDay = false
	s.MaxFutureDays = 0
	return s
}

func noOverrides() (map[string]domain.DateRestriction, map[string]domain.SpecialAvailability) {
	return map[string]domain.DateRestriction{}, map[string]domain.SpecialAvailability{}
}

func TestEvaluateWeekdayRules(t *testing.T) {
	today := date("2025-06-02") // Monday
	restrictions, special := noOverrides()

	// 2025-06-07 is a Saturday.
	got := calendar.Evaluate(date("2025-06-07"), today, weekdaySettings(), restrictions, special)
	assert.False(t, got.Eligible)
	assert.Equal(t, domain.ReasonNotAllowedWeekday, got.Reason)

	// 2025-06-10 is a Tuesday.
	got = calendar.Evaluate(date("2025-06-10"), today, weekdaySettings(), restrictions, special)
	assert.True(t, got.Eligible)
}

func TestEvaluateRestrictionAndSpecialOverride(t *testing.T) {
	today := date("2025-12-01") // Monday
	blocked := date("2025-12-25")

	restrictions := map[string]domain.DateRestriction{
		domain.DateKey(blocked): {Date: blocked, RestrictionType: domain.RestrictionHoliday},
	}
	special := map[string]domain.SpecialAvailability{}

	got := calendar.Evaluate(blocked, today, weekdaySettings(), restrictions, special)
	assert.False(t, got.Eligible)
	assert.Equal(t, domain.ReasonRestricted, got.Reason)

	// A special-availability entry reopens the restricted date.
	special[domain.DateKey(blocked)] = domain.SpecialAvailability{Date: blocked, IsAvailable: true}
	got = calendar.Evaluate(blocked, today, weekdaySettings(), restrictions, special)
	assert.True(t, got.Eligible)

	// An unavailable special entry does not.
	special[domain.DateKey(blocked)] = domain.SpecialAvailability{Date: blocked, IsAvailable: false}
	got = calendar.Evaluate(blocked, today, weekdaySettings(), restrictions, special)
	assert.False(t, got.Eligible)
	assert.Equal(t, domain.ReasonRestricted, got.Reason)
}

func TestEvaluateSpecialOverridesWeekday(t *testing.T) {
	today := date("2025-06-02")
	saturday := date("2025-06-07")
	restrictions, special := noOverrides()
	special[domain.DateKey(saturday)] = domain.SpecialAvailability{Date: saturday, IsAvailable: true}

	got := calendar.Evaluate(saturday, today, weekdaySettings(), restrictions, special)
	assert.True(t, got.Eligible)
}

func TestEvaluateDateWindows(t *testing.T) {
	today := date("2025-06-02")
	restrictions, special := noOverrides()

	t.Run("past", func(t *testing.T) {
		got := calendar.Evaluate(date("2025-05-30"), today, weekdaySettings(), restrictions, special)
		assert.Equal(t, domain.ReasonPast, got.Reason)
	})

	t.Run("same day blocked", func(t *testing.T) {
		got := calendar.Evaluate(today, today, weekdaySettings(), restrictions, special)
		assert.Equal(t, domain.ReasonSameDayBlocked, got.Reason)
	})

	t.Run("same day allowed", func(t *testing.T) {
		s := weekdaySettings()
		s.AllowSameDay = true
		got := calendar.Evaluate(today, today, s, restrictions, special)
		assert.True(t, got.Eligible)
	})

	t.Run("beyond future limit", func(t *testing.T) {
		s := weekdaySettings()
		s.MaxFutureDays = 7
		got := calendar.Evaluate(date("2025-06-16"), today, s, restrictions, special)
		assert.Equal(t, domain.ReasonBeyondFutureLimit, got.Reason)

		got = calendar.Evaluate(date("2025-06-09"), today, s, restrictions, special)
		assert.True(t, got.Eligible)
	})

	t.Run("beyond display range", func(t *testing.T) {
		// DisplayMonths=3 from June means the window closes at Sept 1.
		got := calendar.Evaluate(date("2025-09-01"), today, weekdaySettings(), restrictions, special)
		assert.Equal(t, domain.ReasonBeyondDisplay, got.Reason)

		got = calendar.Evaluate(date("2025-08-29"), today, weekdaySettings(), restrictions, special)
		assert.True(t, got.Eligible)
	})
}

// Reason priority: a date that is both restricted and on a disallowed
// weekday reports restricted; a past date always reports past.
func TestEvaluateReasonPriority(t *testing.T) {
	today := date("2025-06-02")
	saturday := date("2025-06-07")
	restrictions := map[string]domain.DateRestriction{
		domain.DateKey(saturday): {Date: saturday, RestrictionType: domain.RestrictionCustom},
	}
	special := map[string]domain.SpecialAvailability{}

	got := calendar.Evaluate(saturday, today, weekdaySettings(), restrictions, special)
	assert.Equal(t, domain.ReasonRestricted, got.Reason)

	past := date("2025-05-31") // past and restricted and a Saturday
	restrictions[domain.DateKey(past)] = domain.DateRestriction{Date: past}
	got = calendar.Evaluate(past, today, weekdaySettings(), restrictions, special)
	assert.Equal(t, domain.ReasonPast, got.Reason)
}

func TestEvaluateRange(t *testing.T) {
	today := date("2025-06-02")
	restrictions, special := noOverrides()

	got := calendar.EvaluateRange(date("2025-06-02"), date("2025-06-08"), today, weekdaySettings(), restrictions, special)
	assert.Len(t, got, 7)
	assert.False(t, got["2025-06-02"].Eligible) // same day
	assert.True(t, got["2025-06-03"].Eligible)
	assert.False(t, got["2025-06-07"].Eligible) // Saturday
	assert.False(t, got["2025-06-08"].Eligible) // Sunday
}
