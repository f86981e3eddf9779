package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"

	"calsync/internal/environment"
	"calsync/internal/kvstore"
	"calsync/pkg/logging"
)

var (
	// ErrNoCredential is returned where a credential is required but none
	// is stored for the environment. Lookups report absence with ok=false
	// instead.
	ErrNoCredential = errors.New("no credential stored for environment")

	// ErrEmptyToken is returned when asked to store an empty credential.
	ErrEmptyToken = errors.New("credential cannot be empty")
)

// Manager owns the current environment selection and the per-environment
// credentials, persisted together as one Record.
//
// Every mutating method performs exactly one read-modify-write of the whole
// record. There is no compare-and-swap: two concurrent writers race and the
// last write wins. The client is single-user and single-device, so this is
// accepted rather than masked with a lock.
type Manager struct {
	store kvstore.Store
}

// NewManager returns a Manager persisting into store.
func NewManager(store kvstore.Store) *Manager {
	return &Manager{store: store}
}

// Record reads the session record. When nothing is stored the default
// record (production, no credentials) is returned and nothing is written.
func (m *Manager) Record(ctx context.Context) (*Record, error) {
	data, ok, err := m.store.Get(ctx, RecordKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}
	if !ok {
		return DefaultRecord(), nil
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		// An unreadable record holds no usable credentials; treat it as
		// absent so the user can sign in again instead of being stuck.
		logging.Warn("Session", "Session record is not valid JSON, using defaults: %v", err)
		return DefaultRecord(), nil
	}
	if record.normalize() {
		logging.Debug("Session", "Session record repaired on read")
	}
	return &record, nil
}

func (m *Manager) save(ctx context.Context, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if err := m.store.Set(ctx, RecordKey, data); err != nil {
		return fmt.Errorf("failed to persist session record: %w", err)
	}
	return nil
}

// resolve maps an empty environment to the record's current one.
func resolve(record *Record, env environment.ID) environment.ID {
	if env == "" {
		return record.CurrentEnvironment
	}
	return env
}

// CurrentEnvironment returns the selected environment.
func (m *Manager) CurrentEnvironment(ctx context.Context) (environment.ID, error) {
	record, err := m.Record(ctx)
	if err != nil {
		return "", err
	}
	return record.CurrentEnvironment, nil
}

// CurrentConfig returns the registry entry of the selected environment.
func (m *Manager) CurrentConfig(ctx context.Context) (environment.Config, error) {
	env, err := m.CurrentEnvironment(ctx)
	if err != nil {
		return environment.Config{}, err
	}
	return environment.Get(env)
}

// BaseURL returns the base URL of the selected environment.
func (m *Manager) BaseURL(ctx context.Context) (string, error) {
	cfg, err := m.CurrentConfig(ctx)
	if err != nil {
		return "", err
	}
	return cfg.BaseURL, nil
}

// Credential returns the token for env, or for the current environment when
// env is empty. A missing credential is reported with ok=false, not an error.
func (m *Manager) Credential(ctx context.Context, env environment.ID) (token string, ok bool, err error) {
	record, err := m.Record(ctx)
	if err != nil {
		return "", false, err
	}
	token = record.Credentials[resolve(record, env)]
	return token, token != "", nil
}

// SetCredential stores token for env (the current environment when empty).
// SECURITY: the token value is never logged.
func (m *Manager) SetCredential(ctx context.Context, token string, env environment.ID) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	if env != "" && !environment.IsValid(env) {
		return &environment.UnknownEnvironmentError{Name: string(env)}
	}

	record, err := m.Record(ctx)
	if err != nil {
		return err
	}
	target := resolve(record, env)
	record.Credentials[target] = token

	if err := m.save(ctx, record); err != nil {
		slog.Warn("SECURITY_AUDIT: credential storage failed",
			"event", "credential_store_failed",
			"environment", string(target),
			"error", err.Error(),
		)
		return err
	}
	slog.Info("SECURITY_AUDIT: credential stored",
		"event", "credential_stored",
		"environment", string(target),
	)
	return nil
}

// SwitchEnvironment selects env and reports whether a credential already
// exists for it. false tells the caller to start the sign-in flow.
func (m *Manager) SwitchEnvironment(ctx context.Context, env environment.ID) (hasCredential bool, err error) {
	if !environment.IsValid(env) {
		return false, &environment.UnknownEnvironmentError{Name: string(env)}
	}

	record, err := m.Record(ctx)
	if err != nil {
		return false, err
	}
	record.CurrentEnvironment = env
	if err := m.save(ctx, record); err != nil {
		return false, err
	}

	logging.Info("Session", "Switched to environment %s", env)
	return record.HasCredential(env), nil
}

// ClearCredential removes the credential for env (the current environment
// when empty).
func (m *Manager) ClearCredential(ctx context.Context, env environment.ID) error {
	if env != "" && !environment.IsValid(env) {
		return &environment.UnknownEnvironmentError{Name: string(env)}
	}

	record, err := m.Record(ctx)
	if err != nil {
		return err
	}
	target := resolve(record, env)
	delete(record.Credentials, target)

	if err := m.save(ctx, record); err != nil {
		return err
	}
	slog.Info("SECURITY_AUDIT: credential deleted",
		"event", "credential_deleted",
		"environment", string(target),
	)
	return nil
}

// ClearAll removes the whole session record (logout). Later reads return
// the default record.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.store.Remove(ctx, RecordKey); err != nil {
		return fmt.Errorf("failed to remove session record: %w", err)
	}
	slog.Info("SECURITY_AUDIT: session cleared",
		"event", "session_cleared",
	)
	return nil
}

// AuthenticatedEnvironments lists environments holding a credential, in
// registry order.
func (m *Manager) AuthenticatedEnvironments(ctx context.Context) ([]environment.ID, error) {
	record, err := m.Record(ctx)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(environment.All(), func(cfg environment.Config, _ int) (environment.ID, bool) {
		return cfg.Name, record.HasCredential(cfg.Name)
	}), nil
}

// Active is the resolved state needed to call the server.
type Active struct {
	Environment environment.Config
	Token       string
}

// Authenticated reports whether a credential was found.
func (a Active) Authenticated() bool {
	return a.Token != ""
}

// Resolve reads the record once and returns the target environment (the
// current one when env is empty) with its credential, if any.
func (m *Manager) Resolve(ctx context.Context, env environment.ID) (Active, error) {
	record, err := m.Record(ctx)
	if err != nil {
		return Active{}, err
	}
	target := resolve(record, env)
	cfg, err := environment.Get(target)
	if err != nil {
		return Active{}, err
	}
	return Active{Environment: cfg, Token: record.Credentials[target]}, nil
}

// MigrateLegacyToken moves a token stored under the pre-environment key to
// the development environment and removes the old key. It reports whether a
// token was migrated.
func (m *Manager) MigrateLegacyToken(ctx context.Context) (bool, error) {
	data, ok, err := m.store.Get(ctx, LegacyTokenKey)
	if err != nil {
		return false, fmt.Errorf("failed to read legacy token: %w", err)
	}
	if !ok {
		return false, nil
	}

	token := decodeLegacyToken(data)
	if token == "" {
		return false, nil
	}
	if err := m.SetCredential(ctx, token, environment.Dev); err != nil {
		return false, err
	}
	if err := m.store.Remove(ctx, LegacyTokenKey); err != nil {
		return false, fmt.Errorf("failed to remove legacy token: %w", err)
	}

	logging.Info("Session", "Migrated legacy credential to environment %s", environment.Dev)
	return true, nil
}

// decodeLegacyToken accepts the token as a JSON string or as raw text.
func decodeLegacyToken(data []byte) string {
	var token string
	if err := json.Unmarshal(data, &token); err == nil {
		return strings.TrimSpace(token)
	}
	return string(bytes.TrimSpace(data))
}
