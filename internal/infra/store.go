package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ReportCache stores finished reports keyed by company.
type ReportCache interface {
	Get(ctx context.Context, company string) (*models.Report, bool, error)
	Put(ctx context.Context, company string, r *models.Report) error
	Close() error
}

// CacheKey is the storage key for a company's report.
func CacheKey(company string) string {
	return "report:" + strings.ToLower(strings.TrimSpace(company))
}

// NewReportCache builds the backend named in cfg. The "none" backend and
// a zero TTL return nil, which callers treat as caching disabled.
func NewReportCache(cfg config.CacheConfig) (ReportCache, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		if cfg.TTLSec <= 0 {
			return nil, nil
		}
		return NewMemoryReportCache(cfg.TTL()), nil
	case "redis":
		if cfg.TTLSec <= 0 {
			return nil, nil
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisReportCache(rdb, cfg.TTL()), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// ── Memory ──

// MemoryReportCache keeps encoded reports in process memory.
type MemoryReportCache struct {
	cache *MemoryCache
	ttl   time.Duration
}

// NewMemoryReportCache creates a memory-backed report cache.
func NewMemoryReportCache(ttl time.Duration) *MemoryReportCache {
	return &MemoryReportCache{cache: NewMemoryCache(), ttl: ttl}
}

func (m *MemoryReportCache) Get(_ context.Context, company string) (*models.Report, bool, error) {
	data, ok := m.cache.Get(CacheKey(company))
	if !ok {
		return nil, false, nil
	}
	return decodeReport(data)
}

func (m *MemoryReportCache) Put(_ context.Context, company string, r *models.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	m.cache.Cleanup()
	m.cache.Set(CacheKey(company), data, m.ttl)
	return nil
}

func (m *MemoryReportCache) Close() error { return nil }

// ── Redis ──

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisReportCache stores encoded reports in Redis with an expiry.
type RedisReportCache struct {
	rdb redisClient
	ttl time.Duration
}

// NewRedisReportCache wraps an existing client.
func NewRedisReportCache(rdb redisClient, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{rdb: rdb, ttl: ttl}
}

func (c *RedisReportCache) Get(ctx context.Context, company string) (*models.Report, bool, error) {
	data, err := c.rdb.Get(ctx, CacheKey(company)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return decodeReport(data)
}

func (c *RedisReportCache) Put(ctx context.Context, company string, r *models.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.rdb.Set(ctx, CacheKey(company), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisReportCache) Close() error { return c.rdb.Close() }

func decodeReport(data []byte) (*models.Report, bool, error) {
	var r models.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &r, true, nil
}
