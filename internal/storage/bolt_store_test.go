package storage

import (
	"context"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func TestBoltStoreStoresAndExpiresResponses(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		TTL:             time.Minute,
		CleanupInterval: time.Hour,
	}

	storeRaw, err := openBolt(dir+"/cache.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "k1"); err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}

	if err := store.Put(ctx, "k1", []byte(`{"name":"ditto"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != `{"name":"ditto"}` {
		t.Fatalf("unexpected payload %q", got)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, err := store.Get(ctx, "k1"); err != nil || ok {
		t.Fatalf("expected entry to expire, ok=%v err=%v", ok, err)
	}
	if n := countKeys(t, store.db); n != 0 {
		t.Fatalf("expected expired entry removed on read, %d keys left", n)
	}
}

func TestBoltStoreCleanupCadence(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/nested/cache.db", Options{TTL: time.Second, CleanupInterval: time.Minute})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for _, k := range []string{"a", "b"} {
		if err := store.Put(ctx, k, []byte(k)); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	// Entries expired but cleanup is not due yet.
	now = now.Add(30 * time.Second)
	if err := store.Put(ctx, "c", []byte("c")); err != nil {
		t.Fatalf("Put c: %v", err)
	}
	if n := countKeys(t, store.db); n != 3 {
		t.Fatalf("expected 3 keys before cleanup, got %d", n)
	}

	now = now.Add(2 * time.Minute)
	if _, _, err := store.Get(ctx, "missing"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := countKeys(t, store.db); n != 0 {
		t.Fatalf("expected cleanup to purge expired keys, %d left", n)
	}
}

func TestBoltStoreKeepsEmptyPayload(t *testing.T) {
	store, err := NewStore("bbolt", Options{Path: t.TempDir() + "/cache.db"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Put(ctx, "empty", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, "empty")
	if err != nil || !ok || len(got) != 0 {
		t.Fatalf("expected empty hit, got=%q ok=%v err=%v", got, ok, err)
	}
}

func TestDecodeExpiryRejectsShortValues(t *testing.T) {
	if _, ok := decodeExpiry([]byte{1, 2, 3}); ok {
		t.Fatalf("expected short value to be rejected")
	}
	if _, ok := decodeExpiry(make([]byte, expiryPrefixLen)); ok {
		t.Fatalf("expected zero expiry to be rejected")
	}
}

func countKeys(t *testing.T, db *bolt.DB) int {
	t.Helper()
	var n int
	if err := db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(responseBucket)).Stats().KeyN
		return nil
	}); err != nil {
		t.Fatalf("count keys: %v", err)
	}
	return n
}
