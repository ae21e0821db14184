package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/broadcast"
)

// DefaultHeartbeat is how often an idle stream receives a ping event.
const DefaultHeartbeat = 15 * time.Second

// StreamHandler pushes a listing's broadcast events to the browser as
// Server-Sent Events, one event per broadcast named after its type.
type StreamHandler struct {
	subscriber broadcast.Subscriber
	heartbeat  time.Duration
	logger     *slog.Logger
}

func NewStreamHandler(subscriber broadcast.Subscriber, heartbeat time.Duration, logger *slog.Logger) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &StreamHandler{subscriber: subscriber, heartbeat: heartbeat, logger: logger}
}

func (h *StreamHandler) Stream(c *gin.Context) {
	listingID, err := uuid.Parse(c.Param("listingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	events, unsubscribe := h.subscriber.Subscribe(listings.Topic(listingID))
	defer unsubscribe()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	h.logger.Info("Stream opened", "listing_id", listingID)
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(event.Type, event.Data)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.Unix())
			return true
		}
	})
	h.logger.Info("Stream closed", "listing_id", listingID)
}
