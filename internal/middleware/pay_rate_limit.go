package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// PayRateLimit caps settlement submissions per wallet per minute using
// Redis if available.
func PayRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 10
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		wallet, _ := c.Locals(WalletAddressLocal).(string)
		wallet = strings.ToLower(strings.TrimSpace(wallet))
		if wallet == "" {
			wallet = c.IP()
		}
		key := "rl:pay:" + wallet
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many payment attempts, try again later")
		}
		return c.Next()
	}
}
