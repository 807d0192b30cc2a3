// Package validation turns raw form strings into typed, constraint-checked
// values before anything reaches the database.  Every function is pure: it
// returns either a value or a *FieldError, never both.  Messages are meant
// to be shown to the user verbatim.
package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/carshare-console/internal/model"
)

// FieldError reports one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string { return e.Message }

func fieldErr(field, format string) *FieldError {
	return &FieldError{Field: field, Message: fmt.Sprintf(format, field)}
}

// MaxOdometer is the largest value the pickup_odometer column holds.
const MaxOdometer = math.MaxUint32

// datetimeTag accepts exactly the normalized form, calendar checked.  The
// service's struct guard uses the same tag.
const datetimeTag = "datetime=" + model.DateTimeLayout

var validate = validator.New()

// normalizeDatetime converts the datetime-local form (YYYY-MM-DDTHH:MM) to
// the MySQL literal form and pads a missing seconds component.
func normalizeDatetime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "T", " ")
	if len(s) == 16 { // YYYY-MM-DD HH:MM
		s += ":00"
	}
	return s
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

// PositiveInt requires raw to be a whole number greater than zero.
func PositiveInt(raw, field string) (int64, error) {
	if isBlank(raw) {
		return 0, fieldErr(field, "%s is required.")
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fieldErr(field, "%s must be a whole number.")
	}
	if n <= 0 {
		return 0, fieldErr(field, "%s must be a positive number.")
	}
	return n, nil
}

// OptionalNonNegativeInt returns nil for an empty value, otherwise a whole
// number >= 0.
func OptionalNonNegativeInt(raw, field string) (*int64, error) {
	if isBlank(raw) {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fieldErr(field, "%s must be a whole number.")
	}
	if n < 0 {
		return nil, fieldErr(field, "%s must be 0 or greater.")
	}
	if n > MaxOdometer {
		return nil, &FieldError{Field: field, Message: fmt.Sprintf("%s must be %d or less.", field, int64(MaxOdometer))}
	}
	return &n, nil
}

// RequiredString returns the trimmed value, rejecting blanks.
func RequiredString(raw, field string) (string, error) {
	if isBlank(raw) {
		return "", fieldErr(field, "%s is required.")
	}
	return strings.TrimSpace(raw), nil
}

// OptionalString returns nil for a blank value and the trimmed text otherwise.
func OptionalString(raw string) *string {
	if isBlank(raw) {
		return nil
	}
	s := strings.TrimSpace(raw)
	return &s
}

// StringOr returns the trimmed value, or def when it is blank.
func StringOr(raw, def string) string {
	if isBlank(raw) {
		return def
	}
	return strings.TrimSpace(raw)
}

// Datetime requires a value and returns it normalized to
// "YYYY-MM-DD HH:MM:SS".
func Datetime(raw, field string) (string, error) {
	v, err := datetime(raw, field)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fieldErr(field, "%s is required.")
	}
	return v, nil
}

// OptionalDatetime returns nil for an empty value; a non-empty value must
// still be well formed.
func OptionalDatetime(raw, field string) (*string, error) {
	v, err := datetime(raw, field)
	if err != nil || v == "" {
		return nil, err
	}
	return &v, nil
}

func datetime(raw, field string) (string, error) {
	v := normalizeDatetime(raw)
	if v == "" {
		return "", nil
	}
	if err := validate.Var(v, datetimeTag); err != nil {
		return "", fieldErr(field, "%s must be in format YYYY-MM-DD HH:MM or YYYY-MM-DDTHH:MM.")
	}
	return v, nil
}
