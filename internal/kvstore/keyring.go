package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultKeyringService is the keychain service name entries are filed under.
const DefaultKeyringService = "calsync"

// KeyringStore keeps values in the operating system keychain, one account
// per key under a single service name. It does not support Watch.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a KeyringStore for service (DefaultKeyringService
// when empty).
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultKeyringService
	}
	return &KeyringStore{service: service}
}

func (s *KeyringStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}

	secret, err := keyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: failed to read %s from keychain: %w", ErrStoreUnavailable, key, err)
	}
	return []byte(secret), true, nil
}

func (s *KeyringStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := keyring.Set(s.service, key, string(value)); err != nil {
		return fmt.Errorf("%w: failed to write %s to keychain: %w", ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *KeyringStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := keyring.Delete(s.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: failed to remove %s from keychain: %w", ErrStoreUnavailable, key, err)
	}
	return nil
}
