package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
	"github.com/Leeloo90/storygraph-backend/internal/sse"
)

func uuidQuery(c *gin.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Query(name))
}

type SSEHandler struct {
	log *logger.Logger
	hub *sse.Hub
}

func NewSSEHandler(log *logger.Logger, hub *sse.Hub) *SSEHandler {
	return &SSEHandler{
		log: log.With("handler", "SSEHandler"),
		hub: hub,
	}
}

// GET /sse/stream?project=<uuid>
// Streams project change events until the client disconnects.
func (h *SSEHandler) Stream(c *gin.Context) {
	projectID, err := uuidQuery(c, "project")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_project_id", err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		RespondError(c, http.StatusInternalServerError, "no_flush", fmt.Errorf("streaming unsupported"))
		return
	}

	client := h.hub.Subscribe(projectID)
	defer h.hub.Unsubscribe(client)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-client.Done():
			return
		case msg := <-client.Outbound:
			payload, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("failed to marshal SSE message", "error", err)
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", msg.Event, payload)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(c.Writer, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
