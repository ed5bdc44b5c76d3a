// Package api is the access layer for the Supercell Clash Royale API.
// Every read goes cache-first, is gated by the shared upstream budget,
// and absorbs transient upstream failures behind a bounded retry
// policy. Callers above this layer never retry.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"

	"decktracker/internal/apperr"
	"decktracker/internal/cache"
	"decktracker/internal/config"
	"decktracker/internal/constants"
	"decktracker/internal/ratelimit"
)

type SupercellClient struct {
	token   string
	baseURL string
	client  *fasthttp.Client
	cache   cache.Store
	limiter *ratelimit.Upstream
	logger  zerolog.Logger
}

func NewSupercellClient(cfg *config.Config, store cache.Store, limiter *ratelimit.Upstream, logger zerolog.Logger) *SupercellClient {
	return &SupercellClient{
		token:   cfg.SupercellToken,
		baseURL: cfg.SupercellBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		cache:   store,
		limiter: limiter,
		logger:  logger,
	}
}

// EncodeTag normalizes a player or clan tag for URL usage: decode any
// incoming %23, ensure the leading '#', then encode exactly once.
func EncodeTag(tag string) string {
	return url.QueryEscape(CanonicalTag(tag))
}

// CanonicalTag is the comparable form of a tag: decoded, upper-cased,
// with the leading '#'.
func CanonicalTag(tag string) string {
	if unescaped, err := url.PathUnescape(tag); err == nil {
		tag = unescaped
	}
	tag = strings.ToUpper(strings.TrimSpace(tag))
	if !strings.HasPrefix(tag, "#") {
		tag = "#" + tag
	}
	return tag
}

// ParseTag canonicalizes a caller-supplied tag and rejects values that
// cannot be a Supercell tag. Services call it once at entry so every
// layer below, the snapshot store included, sees one spelling per tag.
func ParseTag(tag string) (string, error) {
	canon := CanonicalTag(tag)
	if len(canon) < 2 {
		return "", apperr.InvalidInput("tag cannot be empty")
	}
	for _, r := range canon[1:] {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", apperr.InvalidInput("tag must be '#' followed by letters and digits")
		}
	}
	return canon, nil
}

func (c *SupercellClient) SearchClans(ctx context.Context, name string, limit int) (*ClanSearchResponse, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("limit", strconv.Itoa(limit))
	return fetch[ClanSearchResponse](ctx, c, ratelimit.ClassClans, "/clans", params, constants.ClanSearchTTL)
}

func (c *SupercellClient) GetClan(ctx context.Context, tag string) (*ClanResponse, error) {
	path := fmt.Sprintf("/clans/%s", EncodeTag(tag))
	return fetch[ClanResponse](ctx, c, ratelimit.ClassClans, path, nil, constants.RosterCacheTTL)
}

func (c *SupercellClient) GetClanMembers(ctx context.Context, tag string) (*ClanMembersResponse, error) {
	path := fmt.Sprintf("/clans/%s/members", EncodeTag(tag))
	return fetch[ClanMembersResponse](ctx, c, ratelimit.ClassClans, path, nil, constants.RosterCacheTTL)
}

func (c *SupercellClient) GetRiverRaceLog(ctx context.Context, tag string) (*RiverRaceLogResponse, error) {
	path := fmt.Sprintf("/clans/%s/riverracelog", EncodeTag(tag))
	return fetch[RiverRaceLogResponse](ctx, c, ratelimit.ClassClans, path, nil, constants.RosterCacheTTL)
}

func (c *SupercellClient) GetPlayer(ctx context.Context, tag string) (*PlayerResponse, error) {
	path := fmt.Sprintf("/players/%s", EncodeTag(tag))
	return fetch[PlayerResponse](ctx, c, ratelimit.ClassPlayers, path, nil, constants.RosterCacheTTL)
}

// GetBattleLog returns the player's most recent battles. The upstream
// endpoint returns a bare JSON array capped at ~25 entries.
func (c *SupercellClient) GetBattleLog(ctx context.Context, tag string) (BattleLogResponse, error) {
	path := fmt.Sprintf("/players/%s/battlelog", EncodeTag(tag))
	resp, err := fetch[BattleLogResponse](ctx, c, ratelimit.ClassPlayers, path, nil, constants.BattleLogCacheTTL)
	if err != nil {
		return nil, err
	}
	return *resp, nil
}

// fetch runs the cache-first, limiter-gated, retried GET and decodes
// the payload. Cache hits return without touching the limiter or the
// network.
func fetch[T any](ctx context.Context, c *SupercellClient, class, path string, params url.Values, ttl time.Duration) (*T, error) {
	encoded := ""
	if params != nil {
		encoded = params.Encode()
	}
	key := cache.Key(path, encoded)

	if body, err := c.cache.Get(ctx, key); err == nil {
		c.logger.Debug().Str("path", path).Msg("cache hit")
		return decode[T](body)
	}
	c.logger.Debug().Str("path", path).Msg("cache miss")

	if !c.limiter.Allow(class) {
		c.logger.Warn().Str("path", path).Str("class", class).Msg("upstream budget exhausted")
		return nil, apperr.RateLimited("upstream request budget exhausted")
	}

	body, err := c.do(ctx, path, encoded)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, body, ttl); err != nil {
		c.logger.Warn().Err(err).Str("path", path).Msg("failed to cache response")
	}
	return decode[T](body)
}

func decode[T any](body []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, apperr.UpstreamMalformed(fmt.Errorf("decode upstream response: %w", err))
	}
	return &result, nil
}

// do performs the HTTP GET with the retry policy: up to
// constants.RetryAttempts attempts, exponential backoff with jitter
// from constants.RetryBaseDelay, and a Retry-After hint from a 429
// overriding the computed delay. 404 and 403 never retry.
func (c *SupercellClient) do(ctx context.Context, path, query string) ([]byte, error) {
	uri := c.baseURL + path
	if query != "" {
		uri += "?" + query
	}

	var retryAfter time.Duration
	backoff := withRetryAfter(&retryAfter,
		retry.WithMaxRetries(constants.RetryAttempts-1,
			retry.WithJitterPercent(100, retry.NewExponential(constants.RetryBaseDelay))))

	var body []byte
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		retryAfter = 0

		b, status, hint, err := c.roundTrip(ctx, uri)
		if err != nil {
			c.logger.Warn().Err(err).Str("path", path).Int("attempt", attempt).Msg("upstream connection error")
			return retry.RetryableError(err)
		}

		switch {
		case status == fasthttp.StatusOK:
			body = b
			return nil
		case status == fasthttp.StatusNotFound:
			return apperr.NotFound(resourceFromPath(path))
		case status == fasthttp.StatusForbidden:
			return apperr.UpstreamUnavailable(fmt.Errorf("upstream denied access, check API token"))
		case status == fasthttp.StatusTooManyRequests:
			retryAfter = hint
			c.logger.Warn().Str("path", path).Int("attempt", attempt).Dur("retry_after", hint).Msg("upstream rate limited")
			return retry.RetryableError(fmt.Errorf("upstream 429"))
		case status >= 500:
			c.logger.Warn().Int("status", status).Str("path", path).Int("attempt", attempt).Msg("upstream server error")
			return retry.RetryableError(fmt.Errorf("upstream %d", status))
		default:
			return apperr.UpstreamUnavailable(fmt.Errorf("upstream status %d", status))
		}
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return nil, err
		}
		return nil, apperr.UpstreamUnavailable(fmt.Errorf("retries exhausted: %w", err))
	}
	return body, nil
}

// roundTrip is the single network attempt. On a 429 it also parses the
// upstream Retry-After header into a backoff hint.
func (c *SupercellClient) roundTrip(ctx context.Context, uri string) ([]byte, int, time.Duration, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(constants.ExternalAPITimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, 0, 0, err
	}

	status := resp.StatusCode()
	var hint time.Duration
	if status == fasthttp.StatusTooManyRequests {
		if s := string(resp.Header.Peek("Retry-After")); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
				hint = time.Duration(secs) * time.Second
			}
		}
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, status, hint, nil
}

// withRetryAfter decorates a backoff so an upstream Retry-After hint,
// when present, overrides the computed delay for the next attempt.
func withRetryAfter(hint *time.Duration, next retry.Backoff) retry.Backoff {
	return retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := next.Next()
		if stop {
			return 0, true
		}
		if *hint > 0 {
			d = *hint
			*hint = 0
		}
		return d, false
	})
}

func resourceFromPath(path string) string {
	switch {
	case strings.Contains(path, "/clans"):
		return "clan"
	case strings.Contains(path, "/players"):
		return "player"
	default:
		return "resource"
	}
}
