package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"callvault/pkg/platform/sentinel"
)

var (
	lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "callvault_idempotency_lookup_duration_ms",
		Help:    "Latency of idempotency cache lookups in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
	cacheOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callvault_idempotency_cache_total",
		Help: "Idempotency cache outcomes",
	}, []string{"outcome"})
)

const (
	// Redis key prefix for cached mutation responses
	entryKeyPrefix = "idem:"

	// inFlightMarker is the placeholder claimed before handler execution.
	// Any real entry is JSON and can never equal it.
	inFlightMarker = "__in_flight__"
)

// Store persists cached mutation responses.
type Store interface {
	// Get returns the cached entry, sentinel.ErrNotFound on miss, or
	// ErrInFlight when another request holds the execution claim.
	Get(ctx context.Context, scope, key string) (*Entry, error)
	// Claim atomically inserts the in-flight placeholder. It reports whether
	// this caller won the claim.
	Claim(ctx context.Context, scope, key string, ttl time.Duration) (bool, error)
	// Put replaces the claim with the final entry.
	Put(ctx context.Context, scope, key string, entry Entry, ttl time.Duration) error
	// Release drops the claim so a later retry can execute.
	Release(ctx context.Context, scope, key string) error
}

// RedisStore is the production Store: shared across instances, TTL-expired,
// never explicitly deleted except claim release.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs a Redis-backed idempotency store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func cacheKey(scope, key string) string {
	return entryKeyPrefix + scope + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, scope, key string) (*Entry, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := s.client.Get(ctx, cacheKey(scope, key)).Result()
	if errors.Is(err, redis.Nil) {
		cacheOutcomes.WithLabelValues("miss").Inc()
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		cacheOutcomes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("idempotency get: %w", err)
	}
	if raw == inFlightMarker {
		cacheOutcomes.WithLabelValues("in_flight").Inc()
		return nil, ErrInFlight
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		cacheOutcomes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("idempotency decode: %w", err)
	}
	cacheOutcomes.WithLabelValues("hit").Inc()
	return &entry, nil
}

func (s *RedisStore) Claim(ctx context.Context, scope, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, cacheKey(scope, key), inFlightMarker, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency claim: %w", err)
	}
	return acquired, nil
}

func (s *RedisStore) Put(ctx context.Context, scope, key string, entry Entry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("idempotency encode: %w", err)
	}
	if err := s.client.Set(ctx, cacheKey(scope, key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("idempotency put: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, cacheKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}
