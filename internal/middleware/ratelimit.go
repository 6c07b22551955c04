package middleware

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"heartbridge/internal/cache"
	"heartbridge/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be asked.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// MsgRateLimited is shown when a member acts too often.
const MsgRateLimited = "操作太頻繁，請稍後再試"

const codeRateLimited = "RATE_LIMITED"

var errNoRedis = errors.New("rate limit store unavailable")

// CheckRateLimit counts one request by caller against action in a fixed
// window and reports whether it is within limit. Limits are not enforced
// when APP_ENV is empty, "development", "test" or "stress".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, action, caller string, limit int, window time.Duration) (bool, error) {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test", "stress":
		return true, nil
	}
	if rdb == nil {
		return false, errNoRedis
	}

	key := cache.RateLimitKey(action, caller)
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// The first request opens the window.
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}

// RateLimit allows limit requests per window for one action, counted per
// signed-in member or, for anonymous callers, per IP. The action defaults
// to the request path. Requests pass when Redis is unavailable.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, action ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, action...)
}

// RateLimitWithPolicy is RateLimit with an explicit FailPolicy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, action ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		caller := "ip:" + c.IP()
		if uid := UserID(c); uid != "" {
			caller = "user:" + uid
		}
		name := c.Path()
		if len(action) > 0 {
			name = action[0]
		}

		allowed, err := CheckRateLimit(ctx, rdb, name, caller, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit store unavailable, rejecting request",
					"action", name,
					"error", err,
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: MsgRateLimited,
					Code:  codeRateLimited,
				})
			}
			Logger.DebugContext(ctx, "rate limit store unavailable, allowing request",
				"action", name,
				"error", err,
			)
			return c.Next()
		}
		if !allowed {
			Logger.InfoContext(ctx, "rate limit exceeded", "action", name, "caller", caller)
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: MsgRateLimited,
				Code:  codeRateLimited,
			})
		}
		return c.Next()
	}
}
