package handlers

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/huangang/modsentry/backend/internal/services"
	"github.com/huangang/modsentry/backend/pkg/logger"
)

// SSEHandler streams moderation results to dashboards
type SSEHandler struct {
	hub *services.SSEHub
}

func NewSSEHandler(hub *services.SSEHub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// StreamResults sends every scored or reviewed item as an SSE event.
// Browsers cannot set headers on EventSource, so the route accepts ?token= as well.
// GET /api/events/moderation
func (h *SSEHandler) StreamResults(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	events := h.hub.Subscribe(clientID)
	defer h.hub.Unsubscribe(clientID)

	logger.Info().Str("client_id", clientID).Int("total", h.hub.ClientCount()).Msg("SSE client connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error().Err(err).Msg("SSE marshal error")
				return true
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			c.Writer.Flush()
			return true
		case <-c.Request.Context().Done():
			logger.Info().Str("client_id", clientID).Msg("SSE client disconnected")
			return false
		}
	})
}
