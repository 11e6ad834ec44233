package storage

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// memoryStore keeps entries in process memory; go-cache evicts them on its janitor cadence.
type memoryStore struct {
	cache *gocache.Cache
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{cache: gocache.New(opts.TTL, opts.CleanupInterval)}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	raw, ok := v.([]byte)
	if !ok {
		m.cache.Delete(key)
		return nil, false, nil
	}
	return raw, true, nil
}

func (m *memoryStore) Put(_ context.Context, key string, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	m.cache.SetDefault(key, buf)
	return nil
}

func (m *memoryStore) Close() error {
	m.cache.Flush()
	return nil
}
