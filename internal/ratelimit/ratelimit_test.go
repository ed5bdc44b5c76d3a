package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func TestUpstreamBudgetAtomicUnderContention(t *testing.T) {
	const budget = 10
	u := NewUpstreamLimits(rate.Limit(0.001), budget)

	const workers = 100
	var wg sync.WaitGroup
	var granted int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if u.Allow(ClassPlayers) {
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if granted != budget {
		t.Errorf("granted = %d, want exactly %d", granted, budget)
	}
}

func TestUpstreamClassesHaveIndependentBuckets(t *testing.T) {
	u := NewUpstreamLimits(rate.Limit(0.001), 1)

	if !u.Allow(ClassPlayers) {
		t.Fatal("first players permit denied")
	}
	if u.Allow(ClassPlayers) {
		t.Error("second players permit granted over budget")
	}
	if !u.Allow(ClassClans) {
		t.Error("clans bucket drained by players traffic")
	}
}

func TestCallerBudgetDeniesOverLimit(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	b := &CallerBudget{client: rdb, limit: 3}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := b.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d denied inside budget", i+1)
		}
	}

	ok, err := b.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("request over budget was allowed")
	}

	// A different caller has its own window.
	ok, err = b.Allow(ctx, "5.6.7.8")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if !ok {
		t.Error("other caller denied on first request")
	}
}
