package handlers

import (
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/dto"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/m1z23r/drift/pkg/drift"
)

type InviteHandler struct {
	inviteService InviteServiceInterface
	inviteExpiry  time.Duration
}

func NewInviteHandler(inviteService InviteServiceInterface, inviteExpiry time.Duration) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		inviteExpiry:  inviteExpiry,
	}
}

func (h *InviteHandler) Create(c *drift.Context) {
	var req dto.CreateInviteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	token, err := h.inviteService.Issue(c.Request.Context(), middleware.GetProjectID(c), middleware.GetUserID(c), req.Email, req.Role)
	if err != nil {
		respondError(c, err, "failed to create invite")
		return
	}

	_ = c.JSON(201, dto.InviteResponse{
		Token:     token,
		AcceptURL: h.inviteService.AcceptURL(token),
		ExpiresIn: int64(h.inviteExpiry.Seconds()),
	})
}

// Redeem is the JSON variant of Accept for clients that hold the token themselves.
func (h *InviteHandler) Redeem(c *drift.Context) {
	var req dto.RedeemInviteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Token == "" {
		c.BadRequest("token is required")
		return
	}

	result, err := h.inviteService.Redeem(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, err, "failed to redeem invite")
		return
	}

	_ = c.JSON(200, result)
}

// Accept is the target of the emailed link.
func (h *InviteHandler) Accept(c *drift.Context) {
	token := c.Param("token")
	if token == "" {
		h.renderError(c, "Invalid invite link")
		return
	}

	result, err := h.inviteService.Redeem(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidToken):
			h.renderError(c, "This invite link is invalid or has expired")
		case errors.Is(err, services.ErrNotFound):
			h.renderError(c, "This project no longer exists")
		default:
			logger.Error().Err(err).Msg("[Invites] failed to accept invite")
			h.renderError(c, "Failed to accept invite")
		}
		return
	}

	if result.RequiresRegistration {
		h.renderMessage(c, "Almost there", "Create an account with the invited email address, then open this link again.")
		return
	}

	h.renderMessage(c, "You have joined the project!", "")
}

func (h *InviteHandler) renderMessage(c *drift.Context, title, detail string) {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Project Invitation</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 400px; margin: 50px auto; padding: 20px; text-align: center; }
        h1 { color: #22c55e; }
        p { color: #666; }
    </style>
</head>
<body>
    <h1>%s</h1>
    <p>%s</p>
</body>
</html>`, html.EscapeString(title), html.EscapeString(detail))

	_ = c.HTML(200, body)
}

func (h *InviteHandler) renderError(c *drift.Context, message string) {
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Error</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 400px; margin: 50px auto; padding: 20px; text-align: center; }
        h1 { color: #ef4444; }
        p { color: #666; }
    </style>
</head>
<body>
    <h1>Error</h1>
    <p>%s</p>
</body>
</html>`, html.EscapeString(message))

	_ = c.HTML(400, body)
}
