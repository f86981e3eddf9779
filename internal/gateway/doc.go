// Package gateway performs calls to the calendar server.
//
// Client.Do sends a JSON request, adds bearer auth through an
// oauth2.TokenSource when one is given, and returns the fully read body of
// 2xx replies; any other status is a *StatusError. Calls are bounded by a
// per-call timeout and, optionally, a client-side rate limit.
package gateway
