// Package lookupcache caches suggest and flyout lookups in front of the names repository.
package lookupcache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/owid/lc-reconcile/pkg/metrics"
	"github.com/owid/lc-reconcile/pkg/redis"
)

// KeyPrefix is shared by every key the cache writes
const KeyPrefix = "reconcile:"

// Store is a best-effort key/value cache. Failures are never reported to callers;
// a broken cache behaves like an empty one.
type Store interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
	Purge(ctx context.Context)
}

// NoopStore caches nothing. It is used when redis is disabled.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string, any) bool { return false }
func (NoopStore) Set(context.Context, string, any)      {}
func (NoopStore) Purge(context.Context)                 {}

// Backend is the key/value server behind a RedisStore
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
}

// RedisStore keeps JSON-encoded values in redis with a fixed TTL
type RedisStore struct {
	backend Backend
	ttl     time.Duration
	logger  ectologger.Logger
}

// NewRedisStore creates a store on top of a redis client
func NewRedisStore(backend Backend, ttl time.Duration, logger ectologger.Logger) *RedisStore {
	return &RedisStore{
		backend: backend,
		ttl:     ttl,
		logger:  logger,
	}
}

// Get decodes the cached value for key into dest and reports whether there was one
func (s *RedisStore) Get(ctx context.Context, key string, dest any) bool {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if !redis.IsMiss(err) {
			s.fail(ctx, key, err, "Failed to read lookup cache")
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.fail(ctx, key, err, "Failed to decode lookup cache entry")
		return false
	}
	return true
}

// Set stores value under key
func (s *RedisStore) Set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.fail(ctx, key, err, "Failed to encode lookup cache entry")
		return
	}
	if err := s.backend.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.fail(ctx, key, err, "Failed to write lookup cache")
	}
}

// Purge drops every entry written by the cache
func (s *RedisStore) Purge(ctx context.Context) {
	deleted, err := s.backend.DeleteByPrefix(ctx, KeyPrefix)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to purge lookup cache")
		return
	}
	s.logger.WithContext(ctx).WithField("deleted", deleted).Info("Purged lookup cache")
}

func (s *RedisStore) fail(ctx context.Context, key string, err error, msg string) {
	metrics.LookupCacheTotal.WithLabelValues(kindOf(key), "error").Inc()
	s.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn(msg)
}

// kindOf extracts "suggest" from "reconcile:suggest:..."
func kindOf(key string) string {
	rest := strings.TrimPrefix(key, KeyPrefix)
	kind, _, _ := strings.Cut(rest, ":")
	return kind
}
