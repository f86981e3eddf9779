package observable

import (
	"sync"
)

// Readable is a value that notifies subscribers when it changes.
type Readable[T any] interface {
	// Get returns the current value.
	Get() T
	// Subscribe calls fn with the current value immediately and again after
	// every change, until the returned function is called.
	Subscribe(fn func(T)) (unsubscribe func())
}

// Value is a mutable Readable.
//
// Notifications are delivered synchronously, in Set order, on the setting
// goroutine. A subscriber must not call Set on the same Value from inside
// its callback.
type Value[T any] struct {
	notifyMu sync.Mutex // serializes set+notify so subscribers see changes in order

	mu     sync.RWMutex
	value  T
	subs   []subscription[T]
	nextID uint64
}

type subscription[T any] struct {
	id uint64
	fn func(T)
}

// NewValue returns a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set replaces the value and notifies subscribers.
func (v *Value[T]) Set(value T) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	v.value = value
	subs := v.snapshotLocked()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
}

// Update sets the value to fn(current) atomically with respect to other
// Set and Update calls.
func (v *Value[T]) Update(fn func(T) T) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	v.value = fn(v.value)
	value := v.value
	subs := v.snapshotLocked()
	v.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
}

func (v *Value[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs = append(v.subs, subscription[T]{id: id, fn: fn})
	current := v.value
	v.mu.Unlock()
	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			for i, sub := range v.subs {
				if sub.id == id {
					v.subs = append(v.subs[:i:i], v.subs[i+1:]...)
					break
				}
			}
			v.mu.Unlock()
		})
	}
}

// snapshotLocked returns subscribers in registration order.
func (v *Value[T]) snapshotLocked() []func(T) {
	fns := make([]func(T), len(v.subs))
	for i, sub := range v.subs {
		fns[i] = sub.fn
	}
	return fns
}
