// Package forms models form state and validation for the dashboard's
// mutation flows. Form values are immutable snapshots updated through Apply;
// schemas declare per-field rules and produce field-level errors, so the
// validate-then-submit pipeline is testable without any rendering layer.
package forms

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule validates a single field value and returns a human-readable message
// on failure, or "" when the value passes.
type Rule func(value string) string

// Field declares the rules for one named form field.
type Field struct {
	Name  string
	Rules []Rule
}

// Schema is an ordered set of field declarations.
type Schema struct {
	Fields []Field
}

// FieldError pairs a field name with its first failing rule's message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate runs every field's rules against the form value. It returns one
// error per failing field (the first failing rule wins) in declaration
// order; an empty slice means the form may be submitted.
func (s Schema) Validate(form Value) []FieldError {
	var errs []FieldError
	for _, field := range s.Fields {
		value := form.Get(field.Name)
		for _, rule := range field.Rules {
			if msg := rule(value); msg != "" {
				errs = append(errs, FieldError{Field: field.Name, Message: msg})
				break
			}
		}
	}
	return errs
}

// MinLength requires at least n characters after trimming.
func MinLength(n int) Rule {
	return func(value string) string {
		if len(strings.TrimSpace(value)) < n {
			if n == 1 {
				return "is required"
			}
			return fmt.Sprintf("must be at least %d characters", n)
		}
		return ""
	}
}

// OneOf requires the value to be one of the allowed options.
func OneOf(options ...string) Rule {
	return func(value string) string {
		for _, option := range options {
			if value == option {
				return ""
			}
		}
		return "must be one of: " + strings.Join(options, ", ")
	}
}

// Optional wraps a rule so that an empty value always passes. The wrapped
// rule only sees non-empty input.
func Optional(rule Rule) Rule {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		return rule(value)
	}
}

// Email requires a plausible email address. Deliverability is the mail
// server's problem; this only rejects obvious typos.
func Email() Rule {
	return func(value string) string {
		value = strings.TrimSpace(value)
		at := strings.Index(value, "@")
		if at < 1 || at == len(value)-1 {
			return "must be a valid email address"
		}
		return ""
	}
}

// OptionalNumber accepts an empty value, otherwise requires a non-negative
// number. Empty input means "no value", never zero.
func OptionalNumber() Rule {
	return func(value string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "must be a number"
		}
		if n < 0 {
			return "must not be negative"
		}
		return ""
	}
}

// ParseOptionalNumber converts a validated optional numeric field to its
// stored form: nil for empty input, the parsed amount otherwise.
func ParseOptionalNumber(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	n, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &n
}
