package forms_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quietbay/daybook/internal/domain"
	"github.com/quietbay/daybook/internal/forms"
)

func schema() []domain.FieldSpec {
	return []domain.FieldSpec{
		{Name: "name", Label: "Name", Kind: domain.FieldText, Required: true, MaxLength: 10},
		{Name: "email", Label: "Email", Kind: domain.FieldEmail, Required: false},
		{Name: "phone", Label: "Phone", Kind: domain.FieldTel},
		{Name: "size", Label: "Size", Kind: domain.FieldSelect, Required: true, Options: []string{"s", "m", "l"}},
		{Name: "extras", Label: "Extras", Kind: domain.FieldCheckbox, Options: []string{"coffee", "lunch"}},
		{Name: "notes", Label: "Notes", Kind: domain.FieldTextarea, MaxLength: 20},
	}
}

func validPayload() domain.FormPayload {
	return domain.FormPayload{
		"name":   "Ada",
		"email":  "ada@example.com",
		"phone":  "+1 555 123 4567",
		"size":   "m",
		"extras": []string{"coffee"},
		"notes":  "window seat",
	}
}

func TestValidateOK(t *testing.T) {
	errs := forms.Validate(schema(), validPayload())
	assert.Empty(t, errs)
}

func TestValidateRequired(t *testing.T) {
	p := validPayload()
	p["name"] = "  "
	delete(p, "size")

	errs := forms.Validate(schema(), p)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "size")
	assert.Len(t, errs, 2)
}

// Email fields are implicitly required even when the schema says otherwise.
func TestValidateEmailAlwaysRequired(t *testing.T) {
	p := validPayload()
	delete(p, "email")

	errs := forms.Validate(schema(), p)
	assert.Contains(t, errs, "email")

	p["email"] = "not-an-address"
	errs = forms.Validate(schema(), p)
	assert.Contains(t, errs, "email")
}

func TestValidateChoices(t *testing.T) {
	p := validPayload()
	p["size"] = "xl"
	errs := forms.Validate(schema(), p)
	assert.Contains(t, errs, "size")

	p = validPayload()
	p["extras"] = []string{"coffee", "dinner"}
	errs = forms.Validate(schema(), p)
	assert.Contains(t, errs, "extras")

	// Checkboxes are optional when unchecked.
	p = validPayload()
	delete(p, "extras")
	errs = forms.Validate(schema(), p)
	assert.Empty(t, errs)
}

func TestValidateCheckboxShapes(t *testing.T) {
	p := validPayload()

	// JSON decoding yields []any for lists.
	p["extras"] = []any{"coffee", "lunch"}
	assert.Empty(t, forms.Validate(schema(), p))

	// A single checked value may arrive as a bare string.
	p["extras"] = "lunch"
	assert.Empty(t, forms.Validate(schema(), p))

	p["extras"] = 42
	assert.Contains(t, forms.Validate(schema(), p), "extras")
}

func TestValidateMaxLength(t *testing.T) {
	p := validPayload()
	p["name"] = strings.Repeat("a", 11)
	p["notes"] = strings.Repeat("b", 21)

	errs := forms.Validate(schema(), p)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "notes")
}

func TestValidatePhone(t *testing.T) {
	p := validPayload()
	p["phone"] = "call me"
	assert.Contains(t, forms.Validate(schema(), p), "phone")

	// Optional non-email fields may be empty.
	p["phone"] = ""
	assert.Empty(t, forms.Validate(schema(), p))
}
