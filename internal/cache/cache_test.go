package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) (*Redis, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedis(rdb, zerolog.Nop()), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestKeyDeterministic(t *testing.T) {
	k1 := Key("/clans/%23ABC/members", "")
	k2 := Key("/clans/%23ABC/members", "")
	if k1 != k2 {
		t.Errorf("same inputs produced different keys: %q vs %q", k1, k2)
	}

	k3 := Key("/clans/%23ABC/members", "limit=10")
	if k1 == k3 {
		t.Errorf("different params produced the same key")
	}
	k4 := Key("/clans/%23XYZ/members", "")
	if k1 == k4 {
		t.Errorf("different paths produced the same key")
	}
}

func TestGetMissOnAbsentKey(t *testing.T) {
	store, _, cleanup := newTestStore(t)
	defer cleanup()

	if _, err := store.Get(context.Background(), "absent"); err != ErrMiss {
		t.Errorf("err = %v, want ErrMiss", err)
	}
}

func TestSetThenGet(t *testing.T) {
	store, _, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	payload := []byte(`{"items":[]}`)
	if err := store.Set(ctx, "k", payload, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

func TestEntryExpires(t *testing.T) {
	store, mr, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "k"); err != ErrMiss {
		t.Errorf("err after TTL = %v, want ErrMiss", err)
	}
}

func TestLastWriteWins(t *testing.T) {
	store, _, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	store.Set(ctx, "k", []byte("first"), time.Minute)
	store.Set(ctx, "k", []byte("second"), time.Minute)

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("payload = %q, want second", got)
	}
}
