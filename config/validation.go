package config

import (
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// FieldError names one rejected setting.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validator accumulates field errors so a caller can report every bad
// setting at once. Checks chain.
type Validator struct {
	failed []FieldError
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) fail(field, format string, args ...any) *Validator {
	v.failed = append(v.failed, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	return v
}

func (v *Validator) RequireNonEmpty(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.fail(field, "must be set")
	}
	return v
}

func (v *Validator) RequirePositive(field string, value int) *Validator {
	if value < 1 {
		return v.fail(field, "must be at least 1, got %d", value)
	}
	return v
}

func (v *Validator) RequireNonNegative(field string, value int) *Validator {
	if value < 0 {
		return v.fail(field, "must not be negative, got %d", value)
	}
	return v
}

// RequireIdentifier accepts bare SQL identifiers, the only table names the
// stores interpolate into statements.
func (v *Validator) RequireIdentifier(field, value string) *Validator {
	if !identifierPattern.MatchString(value) {
		return v.fail(field, "%q is not a plain identifier", value)
	}
	return v
}

func (v *Validator) ValidateRange(field string, value, lo, hi int) *Validator {
	if !within(value, lo, hi) {
		return v.fail(field, "must be in [%d, %d], got %d", lo, hi, value)
	}
	return v
}

func (v *Validator) ValidateFloatRange(field string, value, lo, hi float64) *Validator {
	if !within(value, lo, hi) {
		return v.fail(field, "must be in [%g, %g], got %g", lo, hi, value)
	}
	return v
}

func (v *Validator) ValidatePort(field string, port int) *Validator {
	return v.ValidateRange(field, port, 1, 65535)
}

// ValidateDBNumber checks a Redis logical database index.
func (v *Validator) ValidateDBNumber(field string, db int) *Validator {
	return v.ValidateRange(field, db, 0, 15)
}

func (v *Validator) ValidateOneOf(field, value string, allowed ...string) *Validator {
	if !slices.Contains(allowed, value) {
		return v.fail(field, "must be one of %s, got %q", strings.Join(allowed, "|"), value)
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.failed) > 0 }

func (v *Validator) Errors() []FieldError { return v.failed }

// Error joins every failure; errors.As finds each FieldError.
func (v *Validator) Error() error {
	if len(v.failed) == 0 {
		return nil
	}
	errs := make([]error, len(v.failed))
	for i, f := range v.failed {
		errs[i] = f
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

func within[T cmp.Ordered](value, lo, hi T) bool {
	return value >= lo && value <= hi
}

// ValidateRedisConfig checks the turn store's Redis settings.
func ValidateRedisConfig(addr string, db int, prefix string) error {
	return NewValidator().
		RequireNonEmpty("addr", addr).
		ValidateDBNumber("db", db).
		RequireNonEmpty("prefix", prefix).
		Error()
}

func ValidateMongoDBConfig(uri, database, collection string) error {
	return NewValidator().
		RequireNonEmpty("uri", uri).
		RequireNonEmpty("database", database).
		RequireNonEmpty("collection", collection).
		Error()
}

// ValidateLLMConfig checks the settings shared by every chat provider.
// Providers with a narrower temperature range add their own check.
func ValidateLLMConfig(apiKey, model string, temperature float64, maxTokens int) error {
	return NewValidator().
		RequireNonEmpty("apiKey", apiKey).
		RequireNonEmpty("model", model).
		ValidateFloatRange("temperature", temperature, 0, 2).
		RequirePositive("maxTokens", maxTokens).
		Error()
}
