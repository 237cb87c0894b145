package handlers

import (
	"time"

	"aura/internal/database"
	"aura/internal/services"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	mongo *database.MongoDB
	redis *services.RedisService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(mongo *database.MongoDB, redis *services.RedisService) *HealthHandler {
	return &HealthHandler{mongo: mongo, redis: redis}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"

	mongoStatus := "disabled"
	if h.mongo != nil {
		mongoStatus = "up"
		if err := h.mongo.Ping(c.Context()); err != nil {
			mongoStatus = "down"
			status = "degraded"
		}
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "up"
		if err := h.redis.Ping(c.Context()); err != nil {
			redisStatus = "down"
			status = "degraded"
		}
	}

	return c.JSON(fiber.Map{
		"status":    status,
		"mongodb":   mongoStatus,
		"redis":     redisStatus,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
