package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"aura/internal/models"
	"aura/internal/services"

	"github.com/gofiber/contrib/websocket"
)

// PlanWebSocketHandler streams session progress to a client: one message per
// checkpoint until the session reaches a terminal state. With Redis available
// it relays the orchestrator's published events; without it, it falls back to
// polling the checkpoint store.
type PlanWebSocketHandler struct {
	store services.CheckpointStore
	redis *services.RedisService // optional
}

// NewPlanWebSocketHandler creates a new progress stream handler
func NewPlanWebSocketHandler(store services.CheckpointStore, redis *services.RedisService) *PlanWebSocketHandler {
	return &PlanWebSocketHandler{store: store, redis: redis}
}

// progressMessage is one frame on the progress stream
type progressMessage struct {
	Type    string              `json:"type"` // connected, session_update, error
	Session *models.PlanSession `json:"session,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// Handle runs one progress stream connection.
func (h *PlanWebSocketHandler) Handle(c *websocket.Conn) {
	defer c.Close()
	sessionID := c.Params("id")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain client frames so we notice a disconnect.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	session, found, err := h.store.Get(ctx, sessionID)
	if err != nil || !found {
		h.send(c, progressMessage{Type: "error", Error: "session not found"})
		return
	}

	h.send(c, progressMessage{Type: "connected", Session: session})
	if session.CurrentStage.Terminal() {
		return
	}

	if h.redis != nil {
		h.relayEvents(ctx, c, sessionID)
		return
	}
	h.pollStore(ctx, c, sessionID, session.LastUpdated)
}

// relayEvents forwards the orchestrator's published snapshots.
func (h *PlanWebSocketHandler) relayEvents(ctx context.Context, c *websocket.Conn, sessionID string) {
	pubsub := h.redis.SubscribeSession(ctx, sessionID)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var session models.PlanSession
			if err := json.Unmarshal([]byte(msg.Payload), &session); err != nil {
				slog.Debug("dropping malformed session event", "error", err)
				continue
			}
			if !h.send(c, progressMessage{Type: "session_update", Session: &session}) {
				return
			}
			if session.CurrentStage.Terminal() {
				return
			}
		}
	}
}

// pollStore pushes a snapshot whenever the checkpoint document changes.
func (h *PlanWebSocketHandler) pollStore(ctx context.Context, c *websocket.Conn, sessionID string, lastSeen time.Time) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			session, found, err := h.store.Get(ctx, sessionID)
			if err != nil || !found {
				return
			}
			if !session.LastUpdated.After(lastSeen) {
				continue
			}
			lastSeen = session.LastUpdated
			if !h.send(c, progressMessage{Type: "session_update", Session: session}) {
				return
			}
			if session.CurrentStage.Terminal() {
				return
			}
		}
	}
}

func (h *PlanWebSocketHandler) send(c *websocket.Conn, msg progressMessage) bool {
	if err := c.WriteJSON(msg); err != nil {
		return false
	}
	return true
}
