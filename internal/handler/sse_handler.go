package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/middleware"
	"github.com/GTDGit/gtd_donate/internal/sse"
)

// SSEHandler streams session and donation events to open tabs.
type SSEHandler struct {
	hub          *sse.Hub
	pingInterval time.Duration
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub, pingInterval: 30 * time.Second}
}

// Stream handles GET /session/events. Visitors without a session get 204,
// which tells EventSource not to reconnect.
func (h *SSEHandler) Stream(c *gin.Context) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	tabID := fmt.Sprintf("tab-%s-%d", sess.ID[:min(8, len(sess.ID))], time.Now().UnixNano())

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	tab := h.hub.Register(tabID, sess.ID)
	defer h.hub.Unregister(tabID)

	c.SSEvent("connected", gin.H{
		"tabId":     tabID,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Debug().Str("tab_id", tabID).Str("role", sess.User.Role).Msg("Session stream started")

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-tab.Events:
			if !ok {
				return false
			}
			var msg sse.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				return true
			}
			c.SSEvent(string(msg.Event), string(data))
			// The session is gone; the tab reloads and the stream ends.
			return msg.Event != sse.EventSessionEnded
		case <-time.After(h.pingInterval):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
