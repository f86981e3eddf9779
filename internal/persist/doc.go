// Package persist implements observable state slots shadowed in durable
// storage.
//
// A Store[T] pairs an observable value with a storage key. At startup
// Hydrate reads the key once; absent, unreadable or invalid payloads leave
// the initial value in place and are only logged. After that the in-memory
// value is authoritative: Set and Update change it and write the encoded
// value through the injected Persister, in the same order. Unset returns the
// slot to "not initialized" without writing, so the last persisted value
// survives a restart. Empty values (an empty list, an empty string) are
// values and are written.
//
// A nil Persister models contexts without durable storage; the store then
// works purely in memory.
package persist
