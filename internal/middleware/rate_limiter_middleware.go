package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/pendo-cea/rag-pipeline/internal/util"
)

const staleAfter = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-identity token bucket. Identity is the X-User-ID
// header when present, otherwise the client IP. Health checks are exempt.
func RateLimiter(perMinute, burst int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 10
	}
	limit := rate.Limit(float64(perMinute) / 60.0)

	var mu sync.Mutex
	clients := make(map[string]*client)

	go func() {
		for range time.Tick(staleAfter) {
			mu.Lock()
			for key, cl := range clients {
				if time.Since(cl.lastSeen) > staleAfter {
					delete(clients, key)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		key := c.Get("X-User-ID")
		if key == "" {
			key = c.IP()
		}

		mu.Lock()
		cl, ok := clients[key]
		if !ok {
			cl = &client{limiter: rate.NewLimiter(limit, burst)}
			clients[key] = cl
		}
		cl.lastSeen = time.Now()
		mu.Unlock()

		res := cl.limiter.Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			retryAfter := int(math.Ceil(delay.Seconds()))
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return util.ErrorResponse(c, util.ErrorResponseFormat{
				Code:    fiber.StatusTooManyRequests,
				Message: "Too many requests",
				Details: fiber.Map{"retry_after": retryAfter},
			})
		}
		return c.Next()
	}
}
