package persist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"calsync/internal/observable"
	"calsync/pkg/logging"
)

const subsystem = "Persist"

// Store is an observable slot of type T shadowed in durable storage under
// Key. After hydration the in-memory value is the only source of truth;
// the durable copy exists for the next process to hydrate from.
type Store[T any] struct {
	key       string
	persister Persister
	codec     Codec[T]
	sink      logging.Sink
	timeout   time.Duration

	value *observable.Value[Optional[T]]

	hydrateOnce sync.Once
	hydrated    chan struct{}

	// writeMu orders durable writes the same way as in-memory updates.
	writeMu sync.Mutex

	errMu        sync.Mutex
	lastWriteErr error
}

// Option configures a Store.
type Option[T any] func(*Store[T])

// WithCodec replaces the default JSON codec.
func WithCodec[T any](c Codec[T]) Option[T] {
	return func(s *Store[T]) {
		s.codec = c
	}
}

// WithSink sets where hydration and write-through failures are reported.
func WithSink[T any](sink logging.Sink) Option[T] {
	return func(s *Store[T]) {
		s.sink = sink
	}
}

// DefaultWriteTimeout is a reasonable bound for local storage writes.
const DefaultWriteTimeout = 5 * time.Second

// WithWriteTimeout bounds each write-through and Clear. Zero means no bound.
func WithWriteTimeout[T any](d time.Duration) Option[T] {
	return func(s *Store[T]) {
		s.timeout = d
	}
}

// New returns a Store for key starting at initial. A nil persister means
// durable storage is unavailable (non-interactive contexts): hydration is
// skipped and nothing is written.
func New[T any](key string, p Persister, initial Optional[T], opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		key:       key,
		persister: p,
		codec:     JSONCodec[T]{},
		sink:      logging.Default(),
		value:     observable.NewValue(initial),
		hydrated:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the storage key.
func (s *Store[T]) Key() string {
	return s.key
}

// Hydrate loads the persisted value once. Missing keys, read failures and
// undecodable payloads leave the initial value in place; failures are
// reported to the sink and never returned, so the store stays usable.
// Later calls are no-ops.
func (s *Store[T]) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		defer close(s.hydrated)

		if s.persister == nil {
			s.sink.Debug(subsystem, "No durable storage for %s, skipping hydration", s.key)
			return
		}

		data, ok, err := s.persister.Load(ctx, s.key)
		if err != nil {
			s.sink.Warn(subsystem, err, "Failed to read %s, keeping default", s.key)
			return
		}
		if !ok {
			s.sink.Debug(subsystem, "Nothing stored for %s", s.key)
			return
		}

		v, err := s.codec.Decode(data)
		if errors.Is(err, ErrEmptyPayload) {
			s.sink.Debug(subsystem, "Stored %s is blank, keeping default", s.key)
			return
		}
		if err != nil {
			s.sink.Warn(subsystem, err, "Stored %s is invalid, keeping default", s.key)
			return
		}

		// The durable copy already holds this value; no write-through.
		s.writeMu.Lock()
		s.value.Set(Some(v))
		s.writeMu.Unlock()
		s.sink.Debug(subsystem, "Hydrated %s", s.key)
	})
}

// Hydrated is closed once Hydrate has finished, successfully or not.
func (s *Store[T]) Hydrated() <-chan struct{} {
	return s.hydrated
}

// Get returns the current value and whether it is set.
func (s *Store[T]) Get() (T, bool) {
	return s.value.Get().Get()
}

// Set stores v in memory and writes it through to durable storage.
// A write failure is reported to the sink and kept for LastWriteError; the
// in-memory value is still updated. Subscribers are notified after the
// write, so they observe its LastWriteError. They must not call Set, Update,
// Unset or Clear on the same Store.
func (s *Store[T]) Set(v T) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.writeThroughLocked(v)
	s.value.Set(Some(v))
}

// Update replaces the value with fn(current, isSet).
func (s *Store[T]) Update(fn func(current T, ok bool) T) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := fn(s.value.Get().Get())
	s.writeThroughLocked(next)
	s.value.Set(Some(next))
}

// Unset returns the slot to the uninitialized state in memory. Nothing is
// written: the previously persisted value survives a restart.
func (s *Store[T]) Unset() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.value.Set(None[T]())
}

// Clear removes the durable entry and then unsets the slot. When the
// removal fails the slot keeps its value and the error is returned.
func (s *Store[T]) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.persister != nil {
		ctx, cancel := s.writeContext(ctx)
		defer cancel()
		if err := s.persister.Remove(ctx, s.key); err != nil {
			s.setWriteErr(err)
			return fmt.Errorf("failed to clear %s: %w", s.key, err)
		}
		s.setWriteErr(nil)
	}

	s.value.Set(None[T]())
	return nil
}

// Subscribe follows the slot's value; see observable.Value.Subscribe.
func (s *Store[T]) Subscribe(fn func(Optional[T])) (unsubscribe func()) {
	return s.value.Subscribe(fn)
}

// LastWriteError returns the error of the most recent write-through, or nil
// if it succeeded.
func (s *Store[T]) LastWriteError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastWriteErr
}

func (s *Store[T]) setWriteErr(err error) {
	s.errMu.Lock()
	s.lastWriteErr = err
	s.errMu.Unlock()
}

func (s *Store[T]) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

func (s *Store[T]) writeThroughLocked(v T) {
	if s.persister == nil {
		return
	}

	data, err := s.codec.Encode(v)
	if err != nil {
		s.setWriteErr(err)
		s.sink.Warn(subsystem, err, "Failed to encode %s", s.key)
		return
	}

	ctx, cancel := s.writeContext(context.Background())
	defer cancel()

	if err := s.persister.Save(ctx, s.key, data); err != nil {
		s.setWriteErr(err)
		s.sink.Warn(subsystem, err, "Failed to persist %s", s.key)
		return
	}
	s.setWriteErr(nil)
}
