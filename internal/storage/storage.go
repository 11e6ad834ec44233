package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Package storage provides the response cache backends.

// Store is a byte-oriented cache with per-entry expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Options controls connection and retention characteristics for concrete store implementations.
type Options struct {
	// Path is the bbolt database file.
	Path string
	// RedisAddr is host:port of the redis server.
	RedisAddr string
	// KeyPrefix namespaces redis keys.
	KeyPrefix       string
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 5 * time.Minute
	defaultCleanupInterval = 10 * time.Minute
	defaultKeyPrefix       = "api-mastery:"
)

// NewStore creates the configured storage backend.
func NewStore(typ string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "memory":
		return newMemoryStore(opts), nil
	case "bbolt":
		if strings.TrimSpace(opts.Path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(opts.Path, opts)
	case "redis":
		if strings.TrimSpace(opts.RedisAddr) == "" {
			return nil, fmt.Errorf("redis storage requires an address")
		}
		return openRedis(opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// Enabled reports whether s actually retains anything.
func Enabled(s Store) bool {
	if s == nil {
		return false
	}
	_, noop := s.(noopStore)
	return !noop
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                      { return nil }
func (noopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (noopStore) Put(context.Context, string, []byte) error         { return nil }
