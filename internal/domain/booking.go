package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingExpired   BookingStatus = "expired"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCancelled, BookingExpired:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// IsActive reports whether the booking still holds capacity for its date.
// Pending bookings hold a provisional reservation until confirmed or reaped.
func (s BookingStatus) IsActive() bool {
	return s == BookingPending || s == BookingConfirmed
}

// FormPayload maps field name to a submitted value. Values are strings,
// except checkbox fields which carry a list of strings.
type FormPayload map[string]any

type Booking struct {
	ID             int64         `json:"id"`
	Date           time.Time     `json:"date"`
	TimeSlotID     *int64        `json:"time_slot_id,omitempty"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone"`
	FormData       FormPayload   `json:"form_data,omitempty"`
	Status         BookingStatus `json:"status"`
	ConfirmToken   *string       `json:"-"`
	TokenExpiresAt *time.Time    `json:"token_expires_at,omitempty"`
	ConfirmedAt    *time.Time    `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BookingFilter narrows admin booking listings.
type BookingFilter struct {
	Email  string
	Status *BookingStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// DateKey renders a calendar date the way the override tables key it.
func DateKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// Day truncates a timestamp to its calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
