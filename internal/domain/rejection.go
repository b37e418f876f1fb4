package domain

import (
	"errors"
	"fmt"
)

// IneligibleReason explains why a date failed the calendar rules. The
// constants are ordered by reporting priority: the first matching reason
// is the one surfaced to callers.
type IneligibleReason string

const (
	ReasonPast              IneligibleReason = "past"
	ReasonRestricted        IneligibleReason = "restricted"
	ReasonSameDayBlocked    IneligibleReason = "same_day_blocked"
	ReasonBeyondFutureLimit IneligibleReason = "beyond_future_limit"
	ReasonBeyondDisplay     IneligibleReason = "beyond_display_range"
	ReasonNotAllowedWeekday IneligibleReason = "not_allowed_weekday"
)

type RejectionCode string

const (
	RejectValidationFailed      RejectionCode = "validation_failed"
	RejectDateNotEligible       RejectionCode = "date_not_eligible"
	RejectOutOfQuota            RejectionCode = "out_of_quota"
	RejectTooManyDates          RejectionCode = "too_many_dates"
	RejectNoDatesSelected       RejectionCode = "no_dates_selected"
	RejectTokenInvalidOrExpired RejectionCode = "token_invalid_or_expired"
	RejectNotFound              RejectionCode = "not_found"
)

// Rejection is a structured refusal from the engine. Callers branch on the
// code; storage failures are ordinary errors and never take this shape.
type Rejection struct {
	Code        RejectionCode     `json:"code"`
	Date        string            `json:"date,omitempty"`
	Reason      IneligibleReason  `json:"reason,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func (r *Rejection) Error() string {
	switch {
	case r.Reason != "":
		return fmt.Sprintf("rejected: %s (%s: %s)", r.Code, r.Date, r.Reason)
	case r.Date != "":
		return fmt.Sprintf("rejected: %s (%s)", r.Code, r.Date)
	default:
		return fmt.Sprintf("rejected: %s", r.Code)
	}
}

// AsRejection unwraps err into a Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

func RejectDate(code RejectionCode, date string) *Rejection {
	return &Rejection{Code: code, Date: date}
}

func RejectIneligible(date string, reason IneligibleReason) *Rejection {
	return &Rejection{Code: RejectDateNotEligible, Date: date, Reason: reason}
}

func RejectFields(fieldErrors map[string]string) *Rejection {
	return &Rejection{Code: RejectValidationFailed, FieldErrors: fieldErrors}
}
