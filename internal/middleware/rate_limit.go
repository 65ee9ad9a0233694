package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// RateLimit creates a limiter keyed by authenticated user, falling back to the client IP.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			subject := c.IP()
			if userID := c.Locals(LocalUserID); userID != nil {
				if value := fmt.Sprintf("%v", userID); value != "" && value != "0" {
					subject = "user:" + value
				}
			}
			return fmt.Sprintf("%s:%s", identifier, subject)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
		},
	})
}
