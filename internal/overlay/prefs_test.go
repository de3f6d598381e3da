package overlay

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPrefStoreRoundTrip(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()
	store := NewPrefStore(client)

	ctx := context.Background()
	if _, ok, err := store.Load(ctx, "browser-1"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	a := NewAllocator()
	a.Toggle(Map)
	a.Toggle(Map)
	if err := store.Save(ctx, "browser-1", a.Configuration()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := s.TTL(prefsKey("browser-1")); ttl != prefsTTL {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	cfg, ok, err := store.Load(ctx, "browser-1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	restored := NewAllocator()
	restored.Apply(cfg)
	if c, _ := restored.Position(Map); c != TopLeft {
		t.Fatalf("expected map restored at top-left, got %s", c)
	}
}

func TestPrefStoreWithoutRedis(t *testing.T) {
	var store *PrefStore
	if err := store.Save(context.Background(), "x", Configuration{}); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
	if _, ok, err := NewPrefStore(nil).Load(context.Background(), "x"); ok || err != nil {
		t.Fatalf("expected no prefs without redis")
	}
}

func TestPrefStoreCorruptValue(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()
	if err := s.Set(prefsKey("b"), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, _, err := NewPrefStore(client).Load(context.Background(), "b"); err == nil {
		t.Fatalf("expected decode error")
	}
}
