package kvstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidKey is returned for keys that cannot be used as storage names.
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrStoreUnavailable wraps backend failures (I/O, keychain access).
	ErrStoreUnavailable = errors.New("storage unavailable")
)

// keyPattern keeps keys usable as file names and keychain account names.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Store is an asynchronous, durable key-value store. Values are serialized
// JSON documents. A failed call means the operation did not happen.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Op describes what happened to a watched key.
type Op int

const (
	OpSet Op = iota
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Change is emitted by a Watcher when a key is written or removed,
// including writes made by other processes where the backend allows it.
type Change struct {
	Key string
	Op  Op
}

// Watcher is implemented by stores that can report changes.
type Watcher interface {
	// Watch emits changes to the given keys (all keys when none are given)
	// until ctx is done, then closes the channel.
	Watch(ctx context.Context, keys ...string) (<-chan Change, error)
}

// ValidateKey checks that key is non-empty and uses only safe characters.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func matchesKeys(key string, keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
