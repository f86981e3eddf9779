// Package cli holds the output and error helpers shared by calsync
// commands.
//
// Printer renders a command result as a plain table (go-pretty), indented
// JSON, YAML, or a Go template with sprig functions, selected with
// ParseOutput from the --output flag. Explain maps session and gateway
// failures to errors that tell the user what to run next, and
// ClassifyConnectionError names the kind of transport failure.
package cli
