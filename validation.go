package main

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// Validator collects validation errors across chained checks
type Validator struct {
	errors []string
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]string, 0),
	}
}

// AddError adds a validation error
func (v *Validator) AddError(message string) {
	v.errors = append(v.errors, message)
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []string {
	return v.errors
}

// ErrorString returns all errors as a single string
func (v *Validator) ErrorString() string {
	return strings.Join(v.errors, "; ")
}

// ValidateRequired checks if a string is not empty
func (v *Validator) ValidateRequired(value, field string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(fmt.Sprintf("%s is required", field))
	}
	return v
}

// ValidateLength checks string length constraints
func (v *Validator) ValidateLength(value, field string, min, max int) *Validator {
	length := utf8.RuneCountInString(value)
	if length < min {
		v.AddError(fmt.Sprintf("%s must be at least %d characters long", field, min))
	}
	if max > 0 && length > max {
		v.AddError(fmt.Sprintf("%s must be no more than %d characters long", field, max))
	}
	return v
}

// ValidateEmail validates email format
func (v *Validator) ValidateEmail(email, field string) *Validator {
	if email == "" {
		return v
	}

	if !emailRegex.MatchString(email) {
		v.AddError(fmt.Sprintf("%s must be a valid email address", field))
		return v
	}

	if len(email) > 320 { // RFC 5321 limit
		v.AddError(fmt.Sprintf("%s is too long (maximum 320 characters)", field))
	}

	return v
}

// ValidateRange validates that a number is within a specified range
func (v *Validator) ValidateRange(value int, field string, min, max int) *Validator {
	if value < min {
		v.AddError(fmt.Sprintf("%s must be at least %d", field, min))
	}
	if value > max {
		v.AddError(fmt.Sprintf("%s must be no more than %d", field, max))
	}
	return v
}

// ValidateSafeText rejects control characters other than whitespace
func (v *Validator) ValidateSafeText(value, field string) *Validator {
	for _, r := range value {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			v.AddError(fmt.Sprintf("%s contains invalid characters", field))
			break
		}
	}
	return v
}

// ValidateKitFilename checks a kit filename given on the command line
func (v *Validator) ValidateKitFilename(name, field string) *Validator {
	v.ValidateRequired(name, field)
	v.ValidateLength(name, field, 0, 255)
	v.ValidateSafeText(name, field)
	if name != "" && !strings.HasSuffix(strings.ToLower(name), ".zip") {
		v.AddError(fmt.Sprintf("%s must be a .zip file", field))
	}
	return v
}
