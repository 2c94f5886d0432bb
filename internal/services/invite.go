package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/google/uuid"
)

// InviteMailer delivers invitation emails.
type InviteMailer interface {
	SendProjectInvite(to, projectName, inviterName string, role string, acceptURL, registerURL string) error
}

// RedeemResult tells the caller whether the invite was applied or whether the
// invitee has to register first.
type RedeemResult struct {
	Accepted             bool `json:"accepted"`
	RequiresRegistration bool `json:"requires_registration"`
}

type InviteService struct {
	members     *MembershipService
	projects    *ProjectService
	users       *UserService
	tokens      *InviteTokenService
	mailer      InviteMailer
	channels    ChannelRegistry
	baseURL     string
	frontendURL string
}

func NewInviteService(
	members *MembershipService,
	projects *ProjectService,
	users *UserService,
	tokens *InviteTokenService,
	mailer InviteMailer,
	channels ChannelRegistry,
	baseURL, frontendURL string,
) *InviteService {
	return &InviteService{
		members:     members,
		projects:    projects,
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		channels:    channels,
		baseURL:     strings.TrimRight(baseURL, "/"),
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Issue signs an invite for email. The email is sent in the background; a
// delivery failure is logged and leaves the token valid.
func (s *InviteService) Issue(ctx context.Context, projectID, inviterID uuid.UUID, email string, role models.Role) (string, error) {
	if _, err := s.members.RequireRole(ctx, projectID, inviterID, models.AdminOrManager); err != nil {
		return "", err
	}

	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", invalidInput("a valid email is required")
	}
	if !role.Valid() {
		return "", invalidInput("unknown role")
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return "", err
	}
	inviter, err := s.users.GetByID(ctx, inviterID)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Generate(projectID, email, role)
	if err != nil {
		return "", err
	}

	if s.mailer != nil {
		acceptURL := s.AcceptURL(token)
		registerURL := s.frontendURL + "/register?email=" + url.QueryEscape(email)
		go func() {
			if err := s.mailer.SendProjectInvite(email, project.Name, inviter.Name, string(role), acceptURL, registerURL); err != nil {
				logger.Warn().Err(err).
					Str("project_id", projectID.String()).
					Str("email", email).
					Msg("[Invites] failed to send invite email")
			}
		}()
	}

	return token, nil
}

func (s *InviteService) AcceptURL(token string) string {
	return s.baseURL + "/api/v1/invites/" + url.PathEscape(token) + "/accept"
}

// Redeem applies an invite token. Redeeming twice is safe: an existing member
// gets Accepted without a second membership row.
func (s *InviteService) Redeem(ctx context.Context, token string) (*RedeemResult, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, claims.Email)
	if errors.Is(err, ErrUserNotFound) {
		return &RedeemResult{Accepted: false, RequiresRegistration: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.projects.GetByID(ctx, claims.ProjectID); err != nil {
		return nil, err
	}

	member, err := s.members.IsMember(ctx, claims.ProjectID, user.ID)
	if err != nil {
		return nil, err
	}
	if member {
		return &RedeemResult{Accepted: true}, nil
	}

	added, err := s.members.AddMember(ctx, claims.ProjectID, user.ID, claims.Role)
	if err != nil {
		return nil, err
	}
	if added {
		logger.Info().
			Str("project_id", claims.ProjectID.String()).
			Str("user_id", user.ID.String()).
			Str("role", string(claims.Role)).
			Msg("[Invites] invite redeemed")
		if s.channels != nil {
			s.channels.JoinProject(user.ID, claims.ProjectID)
		}
	}
	return &RedeemResult{Accepted: true}, nil
}
