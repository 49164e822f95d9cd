package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/coffeeaccount/respect-service/internal/domain"
	"github.com/coffeeaccount/respect-service/internal/metrics"
)

const (
	respectCachePrefix     = "respect:"
	leaderboardCachePrefix = "respect:leaderboard:"
)

// RespectCache caches GetUserRespect reads in Redis. Backend errors are
// downgraded to cache misses so a flaky Redis never blocks reads; the caller
// falls through to PostgreSQL.
type RespectCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

// NewRespectCache creates a cache with the given entry TTL.
func NewRespectCache(rdb goredis.Cmdable, ttl time.Duration) *RespectCache {
	return &RespectCache{rdb: rdb, ttl: ttl}
}

func cacheKey(userID uuid.UUID) string {
	return respectCachePrefix + userID.String()
}

func leaderboardKey(limit int) string {
	return leaderboardCachePrefix + strconv.Itoa(limit)
}

// GetUserRespect looks up a cached balance. Misses, decode failures, and
// Redis errors all report ok=false.
func (c *RespectCache) GetUserRespect(ctx context.Context, userID uuid.UUID) (domain.UserRespect, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("Redis respect cache GET failed, falling through to PostgreSQL",
				"user_id", userID, "error", err)
			metrics.CacheOpsTotal.WithLabelValues("get", "error").Inc()
		} else {
			metrics.CacheOpsTotal.WithLabelValues("get", "miss").Inc()
		}
		return domain.UserRespect{}, false
	}

	var value domain.UserRespect
	if err := json.Unmarshal(data, &value); err != nil {
		slog.Warn("Failed to unmarshal cached respect, falling through to PostgreSQL",
			"user_id", userID, "error", err)
		metrics.CacheOpsTotal.WithLabelValues("get", "error").Inc()
		return domain.UserRespect{}, false
	}

	metrics.CacheOpsTotal.WithLabelValues("get", "hit").Inc()
	return value, true
}

// SetUserRespect populates the cache (best-effort).
func (c *RespectCache) SetUserRespect(ctx context.Context, userID uuid.UUID, value domain.UserRespect) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(userID), encoded, c.ttl).Err(); err != nil {
		slog.Warn("Failed to populate respect cache", "user_id", userID, "error", err)
		metrics.CacheOpsTotal.WithLabelValues("set", "error").Inc()
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("set", "ok").Inc()
}

// GetLeaderboard looks up a cached leaderboard for the given limit.
func (c *RespectCache) GetLeaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, bool) {
	data, err := c.rdb.Get(ctx, leaderboardKey(limit)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("Redis leaderboard cache GET failed, falling through to PostgreSQL", "error", err)
			metrics.CacheOpsTotal.WithLabelValues("get", "error").Inc()
		} else {
			metrics.CacheOpsTotal.WithLabelValues("get", "miss").Inc()
		}
		return nil, false
	}

	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		slog.Warn("Failed to unmarshal cached leaderboard, falling through to PostgreSQL", "error", err)
		metrics.CacheOpsTotal.WithLabelValues("get", "error").Inc()
		return nil, false
	}

	metrics.CacheOpsTotal.WithLabelValues("get", "hit").Inc()
	return entries, true
}

// SetLeaderboard caches a leaderboard (best-effort). Entries age out via TTL;
// there is no per-write invalidation.
func (c *RespectCache) SetLeaderboard(ctx context.Context, limit int, entries []domain.LeaderboardEntry) {
	encoded, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, leaderboardKey(limit), encoded, c.ttl).Err(); err != nil {
		slog.Warn("Failed to populate leaderboard cache", "error", err)
		metrics.CacheOpsTotal.WithLabelValues("set", "error").Inc()
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("set", "ok").Inc()
}

// Invalidate drops a user's cached balance after a ledger write.
func (c *RespectCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		slog.Warn("Failed to invalidate respect cache", "user_id", userID, "error", err)
		metrics.CacheOpsTotal.WithLabelValues("invalidate", "error").Inc()
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("invalidate", "ok").Inc()
}
