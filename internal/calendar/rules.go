// Package calendar decides whether a date may accept a new booking before
// capacity is considered. Evaluation is a pure function over its inputs;
// callers batch-fetch the override tables for the range being evaluated.
package calendar

import (
	"time"

	"github.com/quietbay/daybook/internal/domain"
)

type Eligibility struct {
	Eligible bool
	Reason   domain.IneligibleReason
}

func eligible() Eligibility {
	return Eligibility{Eligible: true}
}

func ineligible(reason domain.IneligibleReason) Eligibility {
	return Eligibility{Reason: reason}
}

// Evaluate applies the layered availability rules to a single date.
// Reasons are checked in fixed priority order so user-facing messaging
// stays stable: past, restricted, same_day_blocked, beyond_future_limit,
// beyond_display_range, not_allowed_weekday.
func Evaluate(
	date, today time.Time,
	settings domain.Settings,
	restrictions map[string]domain.DateRestriction,
	special map[string]domain.SpecialAvailability,
) Eligibility {
	date = domain.Day(date)
	today = domain.Day(today)
	key := domain.DateKey(date)

	sp, hasSpecial := special[key]
	hasSpecial = hasSpecial && sp.IsAvailable

	if date.Before(today) {
		return ineligible(domain.ReasonPast)
	}
	if _, blocked := restrictions[key]; blocked && !hasSpecial {
		return ineligible(domain.ReasonRestricted)
	}
	if date.Equal(today) && !settings.AllowSameDay {
		return ineligible(domain.ReasonSameDayBlocked)
	}
	if settings.MaxFutureDays > 0 && date.After(today.AddDate(0, 0, settings.MaxFutureDays)) {
		return ineligible(domain.ReasonBeyondFutureLimit)
	}
	if settings.DisplayMonths > 0 {
		windowEnd := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).
			AddDate(0, settings.DisplayMonths, 0)
		if !date.Before(windowEnd) {
			return ineligible(domain.ReasonBeyondDisplay)
		}
	}
	if !hasSpecial && !settings.WeekdayAllowed(date.Weekday()) {
		return ineligible(domain.ReasonNotAllowedWeekday)
	}
	return eligible()
}

// EvaluateRange evaluates every date in [from, to] inclusive and returns
// results keyed by date string. Used by the calendar read API.
func EvaluateRange(
	from, to, today time.Time,
	settings domain.Settings,
	restrictions map[string]domain.DateRestriction,
	special map[string]domain.SpecialAvailability,
) map[string]Eligibility {
	out := make(map[string]Eligibility)
	for d := domain.Day(from); !d.After(domain.Day(to)); d = d.AddDate(0, 0, 1) {
		out[domain.DateKey(d)] = Evaluate(d, today, settings, restrictions, special)
	}
	return out
}
