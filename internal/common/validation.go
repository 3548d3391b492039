package common

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FieldError is one failed rule for one field.
type FieldError struct {
	Field   string
	Value   any
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []FieldError
}

func NewValidator() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []FieldError {
	return v.errors
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Err returns nil or an AppError wrapping ErrValidation.
func (v *Validator) Err() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError(CodeValidation, v.ErrorMessage(), ErrValidation)
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value any) *FieldError

func Required(fieldName string, value any) *FieldError {
	if value == nil {
		return &FieldError{Field: fieldName, Value: value, Message: "is required"}
	}
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &FieldError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &FieldError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// OneOf accepts a string from a fixed set.
func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value any) *FieldError {
		str, _ := value.(string)
		for _, a := range allowed {
			if str == a {
				return nil
			}
		}
		return &FieldError{
			Field:   fieldName,
			Value:   value,
			Message: "must be one of " + strings.Join(allowed, ", "),
		}
	}
}

// IntRange accepts an int within [min, max].
func IntRange(min, max int) ValidationRule {
	return func(fieldName string, value any) *FieldError {
		n, ok := value.(int)
		if !ok || n < min || n > max {
			return &FieldError{Field: fieldName, Value: value, Message: fmt.Sprintf("must be between %d and %d", min, max)}
		}
		return nil
	}
}

// FloatRange accepts a float64 within [min, max].
func FloatRange(min, max float64) ValidationRule {
	return func(fieldName string, value any) *FieldError {
		f, ok := value.(float64)
		if !ok || f < min || f > max {
			return &FieldError{Field: fieldName, Value: value, Message: fmt.Sprintf("must be between %g and %g", min, max)}
		}
		return nil
	}
}

func CompilesRegexp(fieldName string, value any) *FieldError {
	str, _ := value.(string)
	if _, err := regexp.Compile(str); err != nil {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a valid regular expression: " + err.Error()}
	}
	return nil
}

// ISODate accepts YYYY-MM-DD, the stored form of election dates.
func ISODate(fieldName string, value any) *FieldError {
	str, _ := value.(string)
	if _, err := time.Parse(time.DateOnly, str); err != nil {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a date in YYYY-MM-DD form"}
	}
	return nil
}
