// Package strings holds small text helpers for terminal output.
package strings
