package config

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"calsync/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	if lo.Contains(allowed, value) {
		return nil
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// Validate checks every field and returns all problems found.
func (c Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if err := ValidateOneOf("storage.backend", c.Storage.Backend, []string{BackendFile, BackendKeyring, BackendMemory}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if c.Storage.Backend == BackendKeyring && strings.TrimSpace(c.Storage.KeyringService) == "" {
		errs.Add("storage.keyringService", "is required for the keyring backend")
	}
	if c.Storage.WriteTimeout < 0 {
		errs.Add("storage.writeTimeout", "must not be negative", c.Storage.WriteTimeout)
	}

	if c.Gateway.Timeout < 0 {
		errs.Add("gateway.timeout", "must not be negative", c.Gateway.Timeout)
	}
	if c.Gateway.RateLimit < 0 {
		errs.Add("gateway.rateLimit", "must not be negative", c.Gateway.RateLimit)
	}
	if c.Gateway.Burst < 0 {
		errs.Add("gateway.burst", "must not be negative", c.Gateway.Burst)
	}

	for i, name := range c.Flags.Catalogue {
		if strings.TrimSpace(name) == "" {
			errs.Add(fmt.Sprintf("flags.catalogue[%d]", i), "must not be empty")
		}
	}
	if dups := lo.FindDuplicates(c.Flags.Catalogue); len(dups) > 0 {
		errs.Add("flags.catalogue", fmt.Sprintf("contains duplicates: %s", strings.Join(dups, ", ")))
	}
	if c.Flags.Concurrency < 0 {
		errs.Add("flags.concurrency", "must not be negative", c.Flags.Concurrency)
	}

	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			errs.Add("logLevel", err.Error(), c.LogLevel)
		}
	}

	return errs
}
