package domain

import "time"

type RestrictionType string

const (
	RestrictionHoliday RestrictionType = "holiday"
	RestrictionCustom  RestrictionType = "custom"
)

func ParseRestrictionType(s string) (RestrictionType, bool) {
	switch RestrictionType(s) {
	case RestrictionHoliday, RestrictionCustom:
		return RestrictionType(s), true
	default:
		return "", false
	}
}

// DateRestriction fully blocks a calendar date from booking unless a
// special availability entry reopens it.
type DateRestriction struct {
	ID              int64           `json:"id"`
	Date            time.Time       `json:"date"`
	RestrictionType RestrictionType `json:"restriction_type"`
	Reason          string          `json:"reason"`
	CreatedAt       time.Time       `json:"created_at"`
}

// SpecialAvailability reopens a date regardless of weekday rules or
// restrictions, optionally overriding its capacity.
type SpecialAvailability struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	IsAvailable bool      `json:"is_available"`
	Reason      string    `json:"reason"`
	MaxBookings *int      `json:"max_bookings,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Quota is an explicit per-date capacity override.
type Quota struct {
	ID          int64     `json:"id"`
	Date        time.Time `json:"date"`
	MaxBookings int       `json:"max_bookings"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TimeSlot struct {
	ID          int64     `json:"id"`
	StartTime   string    `json:"start_time"` // HH:MM
	DisplayName string    `json:"display_name"`
	IsActive    bool      `json:"is_active"`
	MaxBookings int       `json:"max_bookings"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ResolveCapacity applies the override precedence for a date:
// an explicit Quota row beats SpecialAvailability.MaxBookings, which
// beats the global default.
func ResolveCapacity(special *SpecialAvailability, quota *Quota, settings Settings) int {
	if quota != nil {
		return quota.MaxBookings
	}
	if special != nil && special.IsAvailable && special.MaxBookings != nil {
		return *special.MaxBookings
	}
	return settings.DefaultDailyQuota
}
