package handlers

import (
	"encoding/json"
	"time"

	"github.com/dimitrije/taskhub-api/internal/hub"
	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/websocket"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
)

type ClientMessage struct {
	Action string `json:"action"`
}

// RealtimeHandler serves the live notification channel over websocket and SSE.
// Both transports authenticate with the session access token, either from the
// "token" query parameter or from the Authorization header.
type RealtimeHandler struct {
	hub               HubInterface
	membershipService MembershipServiceInterface
	userService       UserServiceInterface
	jwtService        JWTServiceInterface
}

func NewRealtimeHandler(
	hub HubInterface,
	membershipService MembershipServiceInterface,
	userService UserServiceInterface,
	jwtService JWTServiceInterface,
) *RealtimeHandler {
	return &RealtimeHandler{
		hub:               hub,
		membershipService: membershipService,
		userService:       userService,
		jwtService:        jwtService,
	}
}

// authenticate resolves the caller and its project ids before any upgrade.
// On failure the response has been written and the returned client is nil.
func (h *RealtimeHandler) authenticate(c *drift.Context) (*hub.Client, []uuid.UUID) {
	token := c.QueryParam("token")
	if token == "" {
		var err error
		token, err = middleware.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.Unauthorized("token is required")
			return nil, nil
		}
	}

	claims, err := h.jwtService.ValidateAccessToken(token)
	if err != nil {
		c.Unauthorized("invalid token")
		return nil, nil
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, claims.UserID)
	if err != nil {
		c.Unauthorized("user not found")
		return nil, nil
	}

	client := hub.NewClient(user.ID, user.Name)
	client.SetState(hub.StateAuthenticating)

	projectIDs, err := h.membershipService.ListUserProjectIDs(ctx, user.ID)
	if err != nil {
		client.SetState(hub.StateClosed)
		logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("[Realtime] failed to resolve projects")
		c.InternalServerError("failed to resolve projects")
		return nil, nil
	}

	return client, projectIDs
}

// join registers the client with the hub and subscribes it to its projects.
func (h *RealtimeHandler) join(client *hub.Client, projectIDs []uuid.UUID) map[string]any {
	h.hub.Register(client)
	h.hub.Join(client.ID, projectIDs)

	if projectIDs == nil {
		projectIDs = []uuid.UUID{}
	}
	return map[string]any{
		"type":      hub.EventConnected,
		"client_id": client.ID,
		"projects":  projectIDs,
	}
}

func (h *RealtimeHandler) Connect(c *drift.Context) {
	client, projectIDs := h.authenticate(c)
	if client == nil {
		return
	}

	conn, err := websocket.Upgrade(c)
	if err != nil {
		client.SetState(hub.StateClosed)
		logger.Warn().Err(err).Msg("[Realtime] websocket upgrade failed")
		return
	}

	_ = conn.WriteJSON(h.join(client, projectIDs))

	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		defer func() {
			if err := conn.Close(websocket.CloseNormalClosure, ""); err != nil {
				logger.Debug().Err(err).Msg("[Realtime] websocket close error")
			}
		}()

		for {
			select {
			case msg, ok := <-client.Send:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteText(string(msg)); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.Ping(nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	defer func() {
		close(done)
		h.hub.Unregister(client)
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.WriteJSON(map[string]string{
				"type":    "error",
				"message": "invalid message format",
			})
			continue
		}

		switch msg.Action {
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		default:
			_ = conn.WriteJSON(map[string]string{
				"type":       "error",
				"message":    "unknown action",
				"ref_action": msg.Action,
			})
		}
	}
}
