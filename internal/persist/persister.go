package persist

import (
	"context"

	"calsync/internal/kvstore"
)

// Persister is the durable side of a Store. It is injected so tests and
// non-interactive contexts can substitute or omit it.
type Persister interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
	// Remove deletes key; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// KVPersister persists into a kvstore.Store.
type KVPersister struct {
	Store kvstore.Store
}

// NewKVPersister returns a Persister backed by store.
func NewKVPersister(store kvstore.Store) *KVPersister {
	return &KVPersister{Store: store}
}

func (p *KVPersister) Load(ctx context.Context, key string) ([]byte, bool, error) {
	return p.Store.Get(ctx, key)
}

func (p *KVPersister) Save(ctx context.Context, key string, data []byte) error {
	return p.Store.Set(ctx, key, data)
}

func (p *KVPersister) Remove(ctx context.Context, key string) error {
	return p.Store.Remove(ctx, key)
}
