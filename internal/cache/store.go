package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrStoreUnavailable is returned when the backing store cannot be reached.
// Callers treat it as non-fatal.
var ErrStoreUnavailable = errors.New("cache store unavailable")

type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store is a JSON key/value store with per-key TTL on top of Redis.
type Store struct {
	client RedisClient
	tracer trace.Tracer
}

func NewStore(client RedisClient, tracer trace.Tracer) *Store {
	return &Store{client: client, tracer: tracer}
}

// Get decodes the JSON value under key into dest. A missing key is reported
// as found=false with a nil error.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "cache.get")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("get %s: %w: %w", key, ErrStoreUnavailable, err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value JSON-encoded under key. A non-positive ttl stores the key
// without expiry.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := s.tracer.Start(ctx, "cache.set")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("set %s: %w: %w", key, ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "cache.delete")
	defer span.End()

	if err := s.client.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete %s: %w: %w", key, ErrStoreUnavailable, err)
	}
	return nil
}
