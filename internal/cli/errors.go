package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"calsync/internal/environment"
	"calsync/internal/gateway"
	"calsync/internal/session"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates the calendar server of an environment could not
// be reached.
type ConnectionError struct {
	Environment environment.Config
	Type        ConnectionErrorType
	Reason      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s reaching %s (%s): %v", e.Type, e.Environment.DisplayName, e.Environment.BaseURL, e.Reason)
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError categorizes a transport failure. It returns nil
// for nil errors and for errors that carry a server status.
func ClassifyConnectionError(err error, env environment.Config) *ConnectionError {
	if err == nil {
		return nil
	}
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		return nil
	}

	connErr := &ConnectionError{Environment: env, Type: ConnectionErrorUnknown, Reason: err}

	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		connErr.Type = ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		connErr.Type = ConnectionErrorDNS
	case isTimeoutError(err):
		connErr.Type = ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		connErr.Type = ConnectionErrorNetwork
	}
	return connErr
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if the error string indicates a network connectivity issue.
func isNetworkError(errStr string) bool {
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// AuthRequiredError indicates the environment has no usable credential.
type AuthRequiredError struct {
	Environment environment.ID
	// Rejected is set when the server refused a stored credential.
	Rejected bool
}

// Error returns a user-friendly error message with actionable guidance.
func (e *AuthRequiredError) Error() string {
	if e.Rejected {
		return fmt.Sprintf(`The server rejected the credential for %s

To sign in again, run:
  calsync auth login --env %s`, e.Environment, e.Environment)
	}
	return fmt.Sprintf(`Not signed in to %s

To sign in, run:
  calsync auth login --env %s

To check current authentication status:
  calsync auth status`, e.Environment, e.Environment)
}

// Unwrap lets callers match session.ErrNoCredential.
func (e *AuthRequiredError) Unwrap() error {
	return session.ErrNoCredential
}

// Explain turns errors from the session and gateway layers into errors with
// guidance for the given environment. Other errors are returned unchanged.
func Explain(err error, env environment.Config) error {
	if err == nil {
		return nil
	}

	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden {
			return &AuthRequiredError{Environment: env.Name, Rejected: true}
		}
		return err
	}

	if errors.Is(err, session.ErrNoCredential) {
		return &AuthRequiredError{Environment: env.Name}
	}

	if connErr := ClassifyConnectionError(err, env); connErr != nil && connErr.Type != ConnectionErrorUnknown {
		return connErr
	}
	return err
}
