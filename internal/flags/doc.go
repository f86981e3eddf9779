// Package flags caches the server's feature flags.
//
// The Service loads a fixed catalogue of boolean flags through a Checker,
// one concurrent check per flag. A failing check reads as disabled and is
// only logged; flags never block a caller beyond the first load and never
// fail open. Concurrent unforced loads share a single set of checks. Every
// load carries a sequence number so a slow load cannot overwrite the result
// of a later, already committed one.
//
// Flags, Loading, Err and Flag expose the cache as observables. Their
// subscribers run synchronously and must not call back into the Service.
package flags
