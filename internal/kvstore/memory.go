package kvstore

import (
	"context"
	"sync"
)

// MemoryStore keeps values in memory. It is used for tests, for ephemeral
// runs (storage.backend: memory) and to simulate store outages.
type MemoryStore struct {
	mu       sync.RWMutex
	values   map[string][]byte
	failures map[string]error // keyed by operation: "get", "set", "remove"
	watchers []*memoryWatch
	writes   int
}

type memoryWatch struct {
	keys []string
	ch   chan Change
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values:   make(map[string][]byte),
		failures: make(map[string]error),
	}
}

// FailWith makes every subsequent call of op ("get", "set" or "remove")
// return err. A nil err clears the failure.
func (m *MemoryStore) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Writes returns the number of successful Set and Remove calls.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["get"]; err != nil {
		return nil, false, err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.failures["set"]; err != nil {
		m.mu.Unlock()
		return err
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.values[key] = v
	m.writes++
	m.notifyLocked(Change{Key: key, Op: OpSet})
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.failures["remove"]; err != nil {
		m.mu.Unlock()
		return err
	}
	_, existed := m.values[key]
	delete(m.values, key)
	m.writes++
	if existed {
		m.notifyLocked(Change{Key: key, Op: OpRemove})
	}
	m.mu.Unlock()
	return nil
}

// Watch implements Watcher.
func (m *MemoryStore) Watch(ctx context.Context, keys ...string) (<-chan Change, error) {
	w := &memoryWatch{keys: keys, ch: make(chan Change, 16)}

	m.mu.Lock()
	m.watchers = append(m.watchers, w)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		for i, other := range m.watchers {
			if other == w {
				m.watchers = append(m.watchers[:i], m.watchers[i+1:]...)
				break
			}
		}
		close(w.ch)
		m.mu.Unlock()
	}()

	return w.ch, nil
}

// notifyLocked delivers change without blocking. Channels are only closed
// under m.mu, so sending here cannot race with close.
func (m *MemoryStore) notifyLocked(change Change) {
	for _, w := range m.watchers {
		if !matchesKeys(change.Key, w.keys) {
			continue
		}
		select {
		case w.ch <- change:
		default:
			// Watcher is not keeping up; drop rather than block the writer.
		}
	}
}
