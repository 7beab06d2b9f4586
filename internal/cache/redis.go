package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// redisClient is the subset of the go-redis client the cache uses
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis keeps keyword lists as JSON strings with a TTL
type Redis struct {
	client  redisClient
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	logger  *errors.Logger
}

// NewRedis connects to Redis, instruments the client for tracing and verifies the connection
func NewRedis(cfg config.CacheConfig, logger *errors.Logger) (*Redis, error) {
	if cfg.Address == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "cache address is required", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.NewNetworkError(errors.ErrCodeNetworkTimeout,
			fmt.Sprintf("Failed to connect to Redis at %s", cfg.Address), err)
	}

	logger.Info("Keyword cache connected", "address", cfg.Address, "db", cfg.DB, "ttl", cfg.TTL.String())
	return newRedis(client, cfg, logger), nil
}

func newRedis(client redisClient, cfg config.CacheConfig, logger *errors.Logger) *Redis {
	return &Redis{
		client:  client,
		prefix:  cfg.KeyPrefix,
		ttl:     cfg.TTL,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (r *Redis) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}

// Get returns the cached keywords for key
func (r *Redis) Get(ctx context.Context, key string) ([]types.KeywordEntry, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var entries []types.KeywordEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set
		r.logger.Warn("Discarding unreadable cache entry", "key", key, "error", err.Error())
		return nil, false, nil
	}
	return entries, true, nil
}

// Set stores keywords under key with the configured TTL
func (r *Redis) Set(ctx context.Context, key string, entries []types.KeywordEntry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// New returns a Redis cache when enabled and a Noop cache otherwise
func New(cfg config.CacheConfig, logger *errors.Logger) (KeywordCache, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	r, err := NewRedis(cfg, logger)
	if err != nil {
		return nil, err
	}
	return r, nil
}
