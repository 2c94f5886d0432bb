package dto

import "github.com/dimitrije/taskhub-api/internal/models"

type CreateInviteRequest struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type InviteResponse struct {
	Token     string `json:"token"`
	AcceptURL string `json:"accept_url"`
	ExpiresIn int64  `json:"expires_in"`
}

type RedeemInviteRequest struct {
	Token string `json:"token"`
}
