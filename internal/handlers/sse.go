package handlers

import (
	"github.com/m1z23r/drift/pkg/drift"
)

// Stream is the SSE transport for browsers that cannot open a websocket.
func (h *RealtimeHandler) Stream(c *drift.Context) {
	client, projectIDs := h.authenticate(c)
	if client == nil {
		return
	}

	sseCtx := c.SSE()

	connected := h.join(client, projectIDs)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(connected, "system", ""); err != nil {
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.Send(string(msg), "message", ""); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
