package middleware

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	// Global limits per IP across all /api endpoints
	GlobalAPIMax        int
	GlobalAPIExpiration time.Duration

	// Pipeline-run limits per caller — each run fans out to external sources
	RunMax        int
	RunExpiration time.Duration
}

// DefaultRateLimitConfig returns production-safe defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		GlobalAPIMax:        120,
		GlobalAPIExpiration: 1 * time.Minute,

		RunMax:        10,
		RunExpiration: 1 * time.Minute,
	}
}

// LoadRateLimitConfig reads overrides from the environment
func LoadRateLimitConfig() *RateLimitConfig {
	cfg := DefaultRateLimitConfig()

	if v := os.Getenv("RATE_LIMIT_GLOBAL_MAX"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.GlobalAPIMax = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_RUN_MAX"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.RunMax = parsed
		}
	}
	return cfg
}

// GlobalAPIRateLimiter limits all API traffic per client IP
func GlobalAPIRateLimiter(cfg *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.GlobalAPIMax,
		Expiration: cfg.GlobalAPIExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded, slow down",
			})
		},
	})
}

// RunRateLimiter limits pipeline-run endpoints per authenticated caller,
// falling back to IP for unauthenticated development mode
func RunRateLimiter(cfg *RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.RunMax,
		Expiration: cfg.RunExpiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
				return userID
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many pipeline runs, try again shortly",
			})
		},
	})
}
