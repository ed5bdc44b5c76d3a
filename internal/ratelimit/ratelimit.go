// Package ratelimit guards the two budgets in the system: the shared
// upstream token budget and the per-caller request budget on public
// endpoints. Both are non-blocking; a denied permit surfaces as
// RateLimited instead of queuing.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"decktracker/internal/constants"
)

// Endpoint classes sharing one upstream bucket each.
const (
	ClassClans   = "clans"
	ClassPlayers = "players"
)

// Upstream is a token bucket per endpoint class, shared by every
// concurrent request. Allow is atomic; racing callers cannot overdraw
// the budget.
type Upstream struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func NewUpstream() *Upstream {
	return NewUpstreamLimits(
		rate.Limit(float64(constants.UpstreamRequestsPerMinute)/60.0),
		constants.UpstreamBurst,
	)
}

// NewUpstreamLimits builds a limiter with an explicit refill rate and
// burst.
func NewUpstreamLimits(limit rate.Limit, burst int) *Upstream {
	return &Upstream{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// Allow consumes one permit for the class if available.
func (u *Upstream) Allow(class string) bool {
	u.mu.Lock()
	l, ok := u.buckets[class]
	if !ok {
		l = rate.NewLimiter(u.limit, u.burst)
		u.buckets[class] = l
	}
	u.mu.Unlock()
	return l.Allow()
}

// CallerBudget is a fixed-window counter per caller identifier backed
// by redis, so the budget holds across replicas.
type CallerBudget struct {
	client *redis.Client
	limit  int
}

func NewCallerBudget(client *redis.Client) *CallerBudget {
	return &CallerBudget{client: client, limit: constants.CallerBudgetLimit}
}

// Allow increments the caller's window counter and reports whether the
// caller is still inside its budget. INCR is atomic in redis, so
// concurrent requests cannot slip past the limit together.
func (b *CallerBudget) Allow(ctx context.Context, identifier string) (bool, error) {
	key := fmt.Sprintf("ratelimit:%s", identifier)

	count, err := b.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("caller budget incr: %w", err)
	}
	if count == 1 {
		if err := b.client.Expire(ctx, key, constants.CallerBudgetWindow).Err(); err != nil {
			return false, fmt.Errorf("caller budget expire: %w", err)
		}
	}
	return count <= int64(b.limit), nil
}
