package domain

import "time"

type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldEmail    FieldKind = "email"
	FieldTel      FieldKind = "tel"
	FieldTextarea FieldKind = "textarea"
	FieldSelect   FieldKind = "select"
	FieldRadio    FieldKind = "radio"
	FieldCheckbox FieldKind = "checkbox"
)

func ParseFieldKind(s string) (FieldKind, bool) {
	switch FieldKind(s) {
	case FieldText, FieldEmail, FieldTel, FieldTextarea, FieldSelect, FieldRadio, FieldCheckbox:
		return FieldKind(s), true
	default:
		return "", false
	}
}

// FieldSpec is one entry of the admin-configured form schema.
type FieldSpec struct {
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Kind      FieldKind `json:"kind"`
	Required  bool      `json:"required"`
	MaxLength int       `json:"max_length,omitempty"`
	Options   []string  `json:"options,omitempty"`
}

// Settings is the admin-mutable engine configuration. It lives in a single
// database row and is re-read at every request boundary, never cached.
type Settings struct {
	DisplayMonths     int         `json:"display_months"`
	MaxDaysPerRequest int         `json:"max_days_per_request"`
	AllowedWeekdays   []int       `json:"allowed_weekdays"` // 0=Sunday .. 6=Saturday
	DefaultDailyQuota int         `json:"default_daily_quota"`
	EnableTimeSlots   bool        `json:"enable_time_slots"`
	AllowSameDay      bool        `json:"allow_same_day"`
	MaxFutureDays     int         `json:"max_future_days"`
	FormFields        []FieldSpec `json:"form_fields"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (s Settings) WeekdayAllowed(d time.Weekday) bool {
	for _, w := range s.AllowedWeekdays {
		if time.Weekday(w) == d {
			return true
		}
	}
	return false
}

// DefaultSettings mirrors the values seeded by the initial migration.
func DefaultSettings() Settings {
	return Settings{
		DisplayMonths:     3,
		MaxDaysPerRequest: 5,
		AllowedWeekdays:   []int{1, 2, 3, 4, 5},
		DefaultDailyQuota: 10,
		EnableTimeSlots:   false,
		AllowSameDay:      false,
		MaxFutureDays:     0,
		FormFields: []FieldSpec{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true, MaxLength: 120},
			{Name: "email", Label: "Email", Kind: FieldEmail, Required: true, MaxLength: 254},
			{Name: "phone", Label: "Phone", Kind: FieldTel, Required: false, MaxLength: 32},
		},
	}
}
