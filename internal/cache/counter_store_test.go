package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*RedisCounterStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCounterStore(client), mr
}

func TestIncrAppliesTTLOnFirstIncrementOnly(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := store.Incr(ctx, "2fa:send:1", time.Hour)
		if err != nil {
			t.Fatalf("incr %d: %v", i, err)
		}
		if n != int64(i) {
			t.Fatalf("incr %d: got %d", i, n)
		}
		// later increments must not slide the window
		mr.FastForward(10 * time.Minute)
	}

	// 30 minutes consumed so far; the key must still be alive
	if !mr.Exists("2fa:send:1") {
		t.Fatal("counter expired before the window closed")
	}

	mr.FastForward(31 * time.Minute)
	if mr.Exists("2fa:send:1") {
		t.Fatal("counter survived past the fixed window")
	}

	n, err := store.Incr(ctx, "2fa:send:1", time.Hour)
	if err != nil {
		t.Fatalf("incr after expiry: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected fresh window to start at 1, got %d", n)
	}
}

func TestGetMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	_, ok, err := store.Get(context.Background(), "2fa:lock:42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestSetAndDel(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "2fa:lock:7", "locked", 10*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := store.Get(ctx, "2fa:lock:7")
	if err != nil || !ok || v != "locked" {
		t.Fatalf("get after set: v=%q ok=%v err=%v", v, ok, err)
	}

	mr.FastForward(11 * time.Minute)
	if _, ok, _ := store.Get(ctx, "2fa:lock:7"); ok {
		t.Fatal("lock survived past its TTL")
	}

	if err := store.Set(ctx, "2fa:fail:7", "3", 10*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Del(ctx, "2fa:fail:7"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "2fa:fail:7"); ok {
		t.Fatal("key survived delete")
	}
}
