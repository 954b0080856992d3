package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "coach-notify:"

// Cached is a read-through Redis cache over a Store. Only display records
// (training plans, achievements) are cached; users carry delivery tokens
// that rotate, so their reads always hit the underlying store.
//
// Redis faults never fail a lookup: the read falls through to the store.
type Cached struct {
	Store
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with a Redis cache. A nil client disables caching
// and returns next unchanged.
func NewCached(next Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) Store {
	if rdb == nil {
		return next
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{Store: next, rdb: rdb, ttl: ttl, logger: logger}
}

// NewRedisClient parses a redis:// URL into a client. Returns nil when url
// is empty (cache disabled).
func NewRedisClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return redis.NewClient(opts), nil
}

// GetTrainingPlan returns a cached plan or loads and caches it.
func (c *Cached) GetTrainingPlan(ctx context.Context, id string) (*TrainingPlan, error) {
	key := cacheKeyPrefix + "plan:" + id
	var tp TrainingPlan
	if c.get(ctx, key, &tp) {
		return &tp, nil
	}
	plan, err := c.Store.GetTrainingPlan(ctx, id)
	if err != nil || plan == nil {
		return plan, err
	}
	c.set(ctx, key, plan)
	return plan, nil
}

// GetAchievement returns a cached achievement or loads and caches it.
func (c *Cached) GetAchievement(ctx context.Context, id string) (*Achievement, error) {
	key := cacheKeyPrefix + "achievement:" + id
	var a Achievement
	if c.get(ctx, key, &a) {
		return &a, nil
	}
	ach, err := c.Store.GetAchievement(ctx, id)
	if err != nil || ach == nil {
		return ach, err
	}
	c.set(ctx, key, ach)
	return ach, nil
}

func (c *Cached) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("Lookup cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Debug("Lookup cache entry undecodable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cached) set(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("Lookup cache write failed", "key", key, "error", err)
	}
}
