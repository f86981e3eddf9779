// Package session manages the selected environment and the bearer
// credential held for each environment.
//
// Both live in a single Record persisted under the "environment_data" key
// of a kvstore.Store:
//
//	{
//	  "current_environment": "prod",
//	  "jwt_tokens": {"dev": "eyJ...", "prod": "eyJ..."}
//	}
//
// Reading an empty store yields the default record (production, no
// credentials) without writing anything. Mutations (SetCredential,
// SwitchEnvironment, ClearCredential) each do one read-modify-write of the
// whole record; ClearAll removes it for logout.
//
// A missing credential is not an error: Credential returns ok=false and the
// caller decides whether that is fatal. Store failures are returned to the
// caller and leave the persisted record as it was.
//
// # Concurrency
//
// Writes are last-writer-wins on the whole record. Two concurrent
// SetCredential calls for different environments can lose one of them. The
// Manager is passed explicitly to every component needing authentication;
// there is no package-level instance.
package session
