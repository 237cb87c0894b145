package handlers

import (
	"errors"

	"aura/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PlanHandler exposes the pipeline lifecycle over HTTP
type PlanHandler struct {
	orchestrator *services.Orchestrator
	store        services.CheckpointStore
	redis        *services.RedisService // optional result cache
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(orchestrator *services.Orchestrator, store services.CheckpointStore) *PlanHandler {
	return &PlanHandler{orchestrator: orchestrator, store: store}
}

// SetRedis enables the terminal-result cache.
func (h *PlanHandler) SetRedis(redis *services.RedisService) {
	h.redis = redis
}

type startPlanRequest struct {
	SubjectID string `json:"subject_id"`
}

// Start creates a session for the subject and runs the pipeline to its first
// stopping point (terminal or paused), returning the full session document.
func (h *PlanHandler) Start(c *fiber.Ctx) error {
	var req startPlanRequest
	if err := c.BodyParser(&req); err != nil || req.SubjectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "subject_id is required",
		})
	}

	sessionID, err := h.orchestrator.Start(c.Context(), req.SubjectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to start plan session",
		})
	}

	session, err := h.orchestrator.Resume(c.Context(), sessionID)
	if err != nil {
		// The session document carries the failure detail; surface both.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "pipeline run failed",
			"session": session,
		})
	}

	return c.JSON(session)
}

// Resume continues a persisted session from its checkpoint.
func (h *PlanHandler) Resume(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	session, err := h.orchestrator.Resume(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "session not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "pipeline run failed",
			"session": session,
		})
	}

	return c.JSON(session)
}

// Pause requests a pause; it takes effect before the next stage starts.
func (h *PlanHandler) Pause(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	if err := h.orchestrator.RequestPause(c.Context(), sessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "session not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to request pause",
		})
	}

	return c.JSON(fiber.Map{"status": "pause_requested", "session_id": sessionID})
}

// Get returns the current checkpoint document without running anything.
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	if h.redis != nil {
		if cached, ok := h.redis.CachedSession(c.Context(), sessionID); ok {
			return c.JSON(cached)
		}
	}

	session, found, err := h.store.Get(c.Context(), sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load session",
		})
	}
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "session not found",
		})
	}

	return c.JSON(session)
}
