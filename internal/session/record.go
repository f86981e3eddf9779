package session

import (
	"calsync/internal/environment"
)

const (
	// RecordKey is the store key holding the session record.
	RecordKey = "environment_data"
	// LegacyTokenKey held the single pre-environment token. It is only read
	// by MigrateLegacyToken.
	LegacyTokenKey = "jwt_token"
)

// Record is the persisted session document: the selected environment and
// one bearer credential per environment the user has signed in to.
type Record struct {
	// CurrentEnvironment is always a registered environment ID
	CurrentEnvironment environment.ID `json:"current_environment"`
	// Credentials maps environment IDs to opaque bearer tokens. Partial.
	Credentials map[environment.ID]string `json:"jwt_tokens"`
}

// DefaultRecord is what reads return when nothing has been persisted.
func DefaultRecord() *Record {
	return &Record{
		CurrentEnvironment: environment.Default,
		Credentials:        make(map[environment.ID]string),
	}
}

// normalize repairs records written by older clients or by hand so the
// registry invariants hold: the current environment is registered and no
// credential is kept for an unknown or empty entry.
func (r *Record) normalize() (repaired bool) {
	if !environment.IsValid(r.CurrentEnvironment) {
		r.CurrentEnvironment = environment.Default
		repaired = true
	}
	if r.Credentials == nil {
		r.Credentials = make(map[environment.ID]string)
	}
	for env, token := range r.Credentials {
		if !environment.IsValid(env) || token == "" {
			delete(r.Credentials, env)
			repaired = true
		}
	}
	return repaired
}

// HasCredential reports whether a credential is stored for env.
func (r *Record) HasCredential(env environment.ID) bool {
	return r.Credentials[env] != ""
}
