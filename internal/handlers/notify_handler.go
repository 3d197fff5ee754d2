package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kamaujm/tikiti/internal/notify"
)

// SubscribePaymentStatus streams at most one terminal payment event to the
// caller over SSE, then closes. The stream also closes on client disconnect
// or after the subscription timeout with no event.
func SubscribePaymentStatus(hub *notify.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		checkoutRequestID := c.Param("checkoutRequestId")

		events, cancel := hub.Subscribe(checkoutRequestID)
		defer cancel()

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Flush()

		select {
		case event, ok := <-events:
			if !ok {
				// Replaced by a newer subscription for the same id.
				return
			}
			c.SSEvent("payment-status", event)
			c.Writer.Flush()
		case <-time.After(notify.SubscriptionTimeout):
		case <-c.Request.Context().Done():
		}
	}
}
