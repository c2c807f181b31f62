package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traffic-backend/internal/logger"
	"github.com/yungbote/traffic-backend/internal/realtime"
)

// RealtimeHandler attaches SSE subscribers to the hub.
type RealtimeHandler struct {
	Log *logger.Logger
	Hub *realtime.Hub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		Log: log.With("handler", "RealtimeHandler"),
		Hub: hub,
	}
}

// Stream handles GET /api/stream. The subscriber's first message is the
// initial state snapshot, queued by Register before any later publish.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	client, err := h.Hub.Register()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "realtime hub unavailable"})
		return
	}
	h.Log.Info("Realtime stream open", "client_id", client.ID)

	h.Hub.ServeHTTP(c.Writer, c.Request, client)

	h.Hub.Deregister(client)
	h.Log.Info("Realtime stream closed", "client_id", client.ID)
}
