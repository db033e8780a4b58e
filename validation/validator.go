package validation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kbukum/roundtrip/errors"
)

// FieldError is one rejected config field.
type FieldError struct {
	Field   string `json:"field" yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// Validator accumulates field errors so a config reports every problem at
// once. Check methods return the receiver and can be chained.
type Validator struct {
	errors []FieldError
}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

func (v *Validator) Errors() []FieldError { return v.errors }

// Merge folds the result of a nested Validate into v. Field errors carried by
// a validation AppError are copied as they are; any other error is recorded
// under field.
func (v *Validator) Merge(field string, err error) *Validator {
	if err == nil {
		return v
	}
	if appErr, ok := errors.AsAppError(err); ok {
		if fields, ok := appErr.Details["fields"].([]FieldError); ok {
			v.errors = append(v.errors, fields...)
			return v
		}
	}
	v.AddError(field, err.Error())
	return v
}

// Validate returns nil, or an INVALID_INPUT AppError listing every field
// error in its message and under the "fields" detail.
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}
	var sb strings.Builder
	for i, e := range v.errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		fmt.Fprintf(&sb, "%s: %s", e.Field, e.Message)
	}
	return errors.Validation(sb.String()).WithDetail("fields", v.errors)
}

// Required rejects blank strings.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

func (v *Validator) Min(field string, value, minVal int) *Validator {
	if value < minVal {
		v.AddError(field, fmt.Sprintf("must be at least %d", minVal))
	}
	return v
}

// OneOf rejects values outside allowed. An empty value passes; pair with
// Required when the field is mandatory.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	}
	return v
}

func (v *Validator) Positive(field string, d time.Duration) *Validator {
	return v.Custom(d > 0, field, "must be positive")
}

func (v *Validator) NonNegative(field string, d time.Duration) *Validator {
	return v.Custom(d >= 0, field, "must not be negative")
}

// AtLeast requires d to be no shorter than the duration of field other.
func (v *Validator) AtLeast(field string, d time.Duration, other string, minVal time.Duration) *Validator {
	return v.Custom(d >= minVal, field, "must be at least "+other)
}

func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
