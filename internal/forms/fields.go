// Package forms validates submitted form payloads against the
// admin-configured field schema. Validation never touches storage; any
// non-empty error map is a hard rejection of the whole submission.
package forms

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/quietbay/daybook/internal/domain"
)

// Validate checks payload against schema and returns field-name -> message
// for every failing field. Email fields are always required regardless of
// the configured flag. Unknown payload keys are ignored.
func Validate(schema []domain.FieldSpec, payload domain.FormPayload) map[string]string {
	errs := make(map[string]string)
	for _, field := range schema {
		if msg := validateField(field, payload[field.Name]); msg != "" {
			errs[field.Name] = msg
		}
	}
	return errs
}

func validateField(field domain.FieldSpec, raw any) string {
	required := field.Required || field.Kind == domain.FieldEmail

	switch field.Kind {
	case domain.FieldCheckbox:
		values, ok := stringList(raw)
		if !ok {
			return fmt.Sprintf("%s must be a list of values", field.Label)
		}
		if required && len(values) == 0 {
			return fmt.Sprintf("%s is required", field.Label)
		}
		for _, v := range values {
			if !hasOption(field.Options, v) {
				return fmt.Sprintf("%s has an invalid choice", field.Label)
			}
		}
		return ""
	default:
		value, ok := stringValue(raw)
		if !ok {
			return fmt.Sprintf("%s must be a text value", field.Label)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			if required {
				return fmt.Sprintf("%s is required", field.Label)
			}
			return ""
		}
		if field.MaxLength > 0 && len([]rune(value)) > field.MaxLength {
			return fmt.Sprintf("%s must be at most %d characters", field.Label, field.MaxLength)
		}
		switch field.Kind {
		case domain.FieldEmail:
			if _, err := mail.ParseAddress(value); err != nil {
				return fmt.Sprintf("%s must be a valid email address", field.Label)
			}
		case domain.FieldTel:
			if !validPhone(value) {
				return fmt.Sprintf("%s must be a valid phone number", field.Label)
			}
		case domain.FieldSelect, domain.FieldRadio:
			if !hasOption(field.Options, value) {
				return fmt.Sprintf("%s has an invalid choice", field.Label)
			}
		}
		return ""
	}
}

func stringValue(raw any) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	default:
		return "", false
	}
}

func stringList(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, true
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		// A lone checkbox arrives as a single value.
		if v == "" {
			return nil, true
		}
		return []string{v}, true
	default:
		return nil, false
	}
}

func hasOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

func validPhone(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 7
}
