// Package kvstore provides the durable key-value store the session layer
// persists into.
//
// Store is deliberately small: Get, Set and Remove on string keys holding
// JSON documents. A failed call means the operation did not happen; callers
// never see partial writes.
//
// Backends:
//   - FileStore: one <key>.json file per key under ~/.config/calsync/storage,
//     written atomically. Supports Watch through fsnotify, which is how the
//     CLI notices a credential written by the browser-side auth listener.
//   - KeyringStore: the operating system keychain (go-keyring).
//   - MemoryStore: in-process map for tests and ephemeral runs, with failure
//     injection.
package kvstore
