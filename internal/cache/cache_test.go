package cache

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps values in a map and records TTLs
type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
	failSet error
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.failSet != nil {
		return redis.NewStatusResult("", f.failSet)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

var testLogger = errors.NewLogger(slog.LevelError)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:   true,
		Address:   "localhost:6379",
		TTL:       24 * time.Hour,
		KeyPrefix: "resumeforge:keywords:",
		Timeout:   time.Second,
	}
}

func TestKey(t *testing.T) {
	job := types.JobPosting{Title: "Go Engineer", Company: "Acme", Description: "Build  services\nin Go"}
	same := types.JobPosting{Title: "go engineer", Company: "ACME", Description: "Build services in Go"}

	assert.Equal(t, Key(job, "", nil), Key(same, "", nil))
	assert.Len(t, Key(job, "", nil), 64)
	assert.NotEqual(t, Key(job, "", nil), Key(job, "fintech", nil))

	// Field boundaries matter
	a := types.JobPosting{Title: "ab", Company: "c"}
	b := types.JobPosting{Title: "a", Company: "bc"}
	assert.NotEqual(t, Key(a, "", nil), Key(b, "", nil))
}

func TestKeyIncludesTargetScore(t *testing.T) {
	job := types.JobPosting{Title: "Go Engineer", Description: "Build services in Go"}
	low, high, again := 60, 90, 90

	assert.NotEqual(t, Key(job, "", nil), Key(job, "", &high))
	assert.NotEqual(t, Key(job, "", &low), Key(job, "", &high))
	assert.Equal(t, Key(job, "", &high), Key(job, "", &again))
}

func TestRedisRoundTrip(t *testing.T) {
	fake := newFakeRedis()
	c := newRedis(fake, testCacheConfig(), testLogger)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	entries := []types.KeywordEntry{{
		Term:       "Kubernetes",
		Category:   types.CategoryTool,
		Importance: types.ImportanceRequired,
		Variations: []string{"k8s"},
		Contexts:   []string{},
	}}
	require.NoError(t, c.Set(ctx, "k1", entries))
	assert.Contains(t, fake.data, "resumeforge:keywords:k1")
	assert.Equal(t, 24*time.Hour, fake.ttls["resumeforge:keywords:k1"])

	got, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entries, got)

	require.NoError(t, c.Close())
	assert.True(t, fake.closed)
}

func TestRedisErrors(t *testing.T) {
	fake := newFakeRedis()
	c := newRedis(fake, testCacheConfig(), testLogger)
	ctx := context.Background()

	fake.data["resumeforge:keywords:bad"] = "{not json"
	_, ok, err := c.Get(ctx, "bad")
	assert.NoError(t, err, "corrupt entries are a miss")
	assert.False(t, ok)

	fake.failGet = fmt.Errorf("connection refused")
	_, _, err = c.Get(ctx, "k")
	assert.ErrorContains(t, err, "connection refused")

	fake.failSet = fmt.Errorf("read only replica")
	assert.ErrorContains(t, c.Set(ctx, "k", nil), "read only replica")
}

func TestNewDisabledIsNoop(t *testing.T) {
	c, err := New(config.CacheConfig{Enabled: false}, testLogger)
	require.NoError(t, err)
	assert.IsType(t, Noop{}, c)

	_, ok, err := c.Get(context.Background(), "x")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Set(context.Background(), "x", nil))
}

func TestNewRedisRequiresAddress(t *testing.T) {
	_, err := NewRedis(config.CacheConfig{Enabled: true}, testLogger)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
