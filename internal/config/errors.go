package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ConfigurationError is returned when config.yaml cannot be used.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`    // Full path to the file that caused the error
	FileName    string   `json:"fileName"`    // Base name of the file
	ErrorType   string   `json:"errorType"`   // io, parse or validation
	Message     string   `json:"message"`     // Human-readable error message
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error

	cause error
}

func newFileError(path, errorType, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		FilePath:  path,
		FileName:  filepath.Base(path),
		ErrorType: errorType,
		Message:   message,
		cause:     cause,
	}
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.cause != nil {
		return fmt.Sprintf("%s: %s: %v", ce.FileName, ce.Message, ce.cause)
	}
	return fmt.Sprintf("%s: %s", ce.FileName, ce.Message)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.cause
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error: %s", ce.FileName))
	parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if ce.cause != nil {
		parts = append(parts, fmt.Sprintf("  Details: %v", ce.cause))
	}

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}
