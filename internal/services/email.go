package services

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/dimitrije/taskhub-api/internal/config"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/sony/gobreaker"
)

var headerBreaks = strings.NewReplacer("\r", "", "\n", "")

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends mail over SMTP behind a circuit breaker. It is a no-op
// when SMTP is not configured.
type EmailService struct {
	cfg      config.SMTPConfig
	breaker  *gobreaker.CircuitBreaker
	sendMail sendMailFunc
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return newEmailService(cfg, smtp.SendMail)
}

func newEmailService(cfg config.SMTPConfig, send sendMailFunc) *EmailService {
	return &EmailService{
		cfg:      cfg,
		sendMail: send,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "smtp",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	to = headerBreaks.Replace(to)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.cfg.From, to, headerBreaks.Replace(subject), body)

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.sendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg))
	})
	return err
}

// SendProjectInvite mails an invitation with both the accept link and the
// registration link, since the invitee may not have an account yet.
func (s *EmailService) SendProjectInvite(to, projectName, inviterName string, role string, acceptURL, registerURL string) error {
	subject := fmt.Sprintf("You've been invited to join %s", projectName)
	body := fmt.Sprintf(`
		<html>
		<body>
			<h2>Project Invitation</h2>
			<p>Hi,</p>
			<p><strong>%s</strong> has invited you to join <strong>%s</strong> as <strong>%s</strong>.</p>
			<p><a href="%s">Accept the invitation</a></p>
			<p>No account yet? <a href="%s">Register first</a>, then open the invitation link again.</p>
		</body>
		</html>
	`, html.EscapeString(inviterName), html.EscapeString(projectName), html.EscapeString(role),
		html.EscapeString(acceptURL), html.EscapeString(registerURL))

	return s.Send(to, subject, body)
}
