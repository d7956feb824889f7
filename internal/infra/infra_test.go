package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/pkg/models"
)

// ══ MemoryCache ══

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", []byte("1"), time.Minute)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	assert.Equal(t, 1, c.Len())
	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheCopiesValues(t *testing.T) {
	c := NewMemoryCache()
	in := []byte("abc")
	c.Set("k", in, time.Minute)
	in[0] = 'z'

	out, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(out))

	c.Invalidate("k")
	_, ok = c.Get("k")
	assert.False(t, ok)
}

// ══ ReportCache ══

func sampleReport() *models.Report {
	audio := "audio_outputs/tesla.mp3"
	return &models.Report{
		Company: "Tesla",
		Articles: []models.ArticleSummary{
			{Title: "T", Summary: "S", Sentiment: models.SentimentPositive, Topics: []string{"Cars"}},
		},
		SentimentScore:      models.Distribution{Positive: 1},
		CoverageDifferences: []models.Comparison{},
		TopicOverlap: models.TopicOverlap{
			CommonAcrossPairs: []string{},
			Unique:            [][]string{{"Cars"}},
		},
		FinalSentimentAnalysis: "Upbeat.",
		Audio:                  &audio,
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "report:tesla", CacheKey("  Tesla "))
	assert.Equal(t, CacheKey("APPLE"), CacheKey("apple"))
}

func TestMemoryReportCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryReportCache(time.Minute)

	_, ok, err := c.Get(ctx, "Tesla")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "Tesla", sampleReport()))
	got, ok, err := c.Get(ctx, "tesla")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleReport(), got)
	assert.NoError(t, c.Close())
}

type fakeRedis struct {
	data   map[string]string
	ttl    time.Duration
	getErr error
	closed bool
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisReportCache(t *testing.T) {
	ctx := context.Background()
	rdb := &fakeRedis{data: map[string]string{}}
	c := NewRedisReportCache(rdb, 10*time.Minute)

	_, ok, err := c.Get(ctx, "Tesla")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "Tesla", sampleReport()))
	assert.Equal(t, 10*time.Minute, rdb.ttl)
	assert.Contains(t, rdb.data, "report:tesla")

	got, ok, err := c.Get(ctx, "TESLA")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tesla", got.Company)
	assert.Equal(t, [][]string{{"Cars"}}, got.TopicOverlap.Unique)

	require.NoError(t, c.Close())
	assert.True(t, rdb.closed)
}

func TestRedisReportCacheErrors(t *testing.T) {
	ctx := context.Background()
	rdb := &fakeRedis{data: map[string]string{}, getErr: errors.New("connection refused")}
	c := NewRedisReportCache(rdb, time.Minute)

	_, _, err := c.Get(ctx, "Tesla")
	assert.ErrorContains(t, err, "connection refused")

	rdb.getErr = nil
	rdb.data["report:broken"] = "{not json"
	_, _, err = c.Get(ctx, "broken")
	assert.Error(t, err)
}

func TestNewReportCache(t *testing.T) {
	c, err := NewReportCache(config.CacheConfig{Backend: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewReportCache(config.CacheConfig{Backend: "memory", TTLSec: 5})
	require.NoError(t, err)
	assert.IsType(t, &MemoryReportCache{}, c)

	c, err = NewReportCache(config.CacheConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.Nil(t, c, "zero ttl disables caching")

	c, err = NewReportCache(config.CacheConfig{Backend: "redis", TTLSec: 5, RedisAddr: "localhost:0"})
	require.NoError(t, err)
	assert.IsType(t, &RedisReportCache{}, c)
	assert.NoError(t, c.Close())

	_, err = NewReportCache(config.CacheConfig{Backend: "dynamo", TTLSec: 5})
	assert.Error(t, err)
}

// ══ ErrHTTP ══

func TestErrHTTP(t *testing.T) {
	var err error = &ErrHTTP{StatusCode: 429, Status: "429 Too Many Requests", Body: "slow down"}
	assert.Equal(t, "HTTP 429 429 Too Many Requests: slow down", err.Error())

	var httpErr *ErrHTTP
	require.ErrorAs(t, errors.Join(errors.New("tts chunk 1/1"), err), &httpErr)
	assert.Equal(t, 429, httpErr.StatusCode)
}
