package observable

// derived is a read-only view computing its value from a source.
type derived[S, T any] struct {
	source Readable[S]
	fn     func(S) T
}

// Map returns a Readable whose value is fn applied to source's value.
// Subscribers are notified whenever source changes.
func Map[S, T any](source Readable[S], fn func(S) T) Readable[T] {
	return &derived[S, T]{source: source, fn: fn}
}

func (d *derived[S, T]) Get() T {
	return d.fn(d.source.Get())
}

func (d *derived[S, T]) Subscribe(fn func(T)) (unsubscribe func()) {
	return d.source.Subscribe(func(s S) {
		fn(d.fn(s))
	})
}
