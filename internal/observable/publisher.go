package observable

import "sync"

// Publisher copies the current state of some lock-guarded source into a
// Value. Callers change the source under their own locks, release them and
// then call Publish, so subscribers never run while those locks are held
// and may read the source freely.
//
// Publications are serialized. Publish calls made while another is running,
// including calls from a subscriber, are folded into the running one: it
// reads the source again once its subscribers return. Subscribers therefore
// see states in the order they occurred and always end at the latest one,
// though back-to-back changes may collapse into one notification.
type Publisher[T any] struct {
	out   *Value[T]
	read  func() T
	equal func(a, b T) bool

	mu      sync.Mutex
	running bool
	dirty   bool
}

// NewPublisher returns a Publisher feeding out from read. read must take
// whatever locks guard the source. When equal is non-nil, a state equal to
// the published one is not published again.
func NewPublisher[T any](out *Value[T], read func() T, equal func(a, b T) bool) *Publisher[T] {
	return &Publisher[T]{out: out, read: read, equal: equal}
}

// Publish publishes the source's current state.
func (p *Publisher[T]) Publish() {
	p.mu.Lock()
	p.dirty = true
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true

	for p.dirty {
		p.dirty = false
		p.mu.Unlock()

		next := p.read()
		if p.equal == nil || !p.equal(p.out.Get(), next) {
			p.out.Set(next)
		}

		p.mu.Lock()
	}
	p.running = false
	p.mu.Unlock()
}
