package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/countrycache/countrycache/pkg/logger"
	"github.com/countrycache/countrycache/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// redisLimiter is a fixed-window counter shared by every replica.
type redisLimiter struct {
	client  redis.Cmdable
	window  time.Duration
	allowed int64
	now     func() time.Time
}

func newRedisLimiter(client redis.Cmdable, rps float64, burst int, window time.Duration) *redisLimiter {
	if window < time.Second {
		window = time.Second
	}
	secs := int64(window / time.Second)
	return &redisLimiter{
		client:  client,
		window:  time.Duration(secs) * time.Second,
		allowed: int64(rps*float64(secs)) + int64(burst),
		now:     time.Now,
	}
}

// take counts one request for key in the current window and reports whether it fits.
func (l *redisLimiter) take(ctx context.Context, key string) (bool, error) {
	bucket := l.now().Unix() / int64(l.window/time.Second)
	redisKey := fmt.Sprintf("rl:%s:%d", key, bucket)

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		p.Expire(ctx, redisKey, l.window+time.Second)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= l.allowed, nil
}

// RedisRateLimitMiddleware provides a coarse fixed-window Redis-backed limiter keyed by client IP.
// Algorithm: INCR a per-window key and compare against allowed = floor(rps*windowSeconds)+burst.
func RedisRateLimitMiddleware(client redis.Cmdable, rps float64, burst int, window time.Duration) gin.HandlerFunc {
	if client == nil {
		// fallback to in-memory if no client
		return RateLimitMiddleware(rps, burst)
	}
	return redisLimitHandler(newRedisLimiter(client, rps, burst, window))
}

func redisLimitHandler(l *redisLimiter) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(l.window / time.Second))
	return func(c *gin.Context) {
		ok, err := l.take(c.Request.Context(), clientKey(c))
		if err != nil {
			logger.Warnf("rate limit: redis check failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			return
		}
		if !ok {
			rejectRateLimited(c, "redis", retryAfter)
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("redis").Inc()
		c.Next()
	}
}
