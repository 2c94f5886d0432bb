package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// InviteClaims is the self-contained invitation payload. Invites are not persisted.
type InviteClaims struct {
	ProjectID uuid.UUID   `json:"project_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

// InviteTokenService signs invitations with a secret distinct from the session secret.
type InviteTokenService struct {
	signer hmacSigner
	expiry time.Duration
}

func NewInviteTokenService(secret string, expiry time.Duration) *InviteTokenService {
	return &InviteTokenService{
		signer: hmacSigner{secret: []byte(secret)},
		expiry: expiry,
	}
}

func (s *InviteTokenService) Generate(projectID uuid.UUID, email string, role models.Role) (string, error) {
	token, err := s.signer.sign(InviteClaims{
		ProjectID:        projectID,
		Email:            strings.ToLower(email),
		Role:             role,
		RegisteredClaims: registeredClaims(email, time.Now(), s.expiry),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign invite token: %w", err)
	}
	return token, nil
}

// Validate fails with ErrInvalidToken on a bad signature, expiry or payload.
func (s *InviteTokenService) Validate(tokenString string) (*InviteClaims, error) {
	var claims InviteClaims
	if err := s.signer.parse(tokenString, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ProjectID == uuid.Nil || claims.Email == "" || !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: incomplete invite payload", ErrInvalidToken)
	}
	return &claims, nil
}

func (s *InviteTokenService) Expiry() time.Duration {
	return s.expiry
}
