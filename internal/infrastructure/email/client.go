// Package email sends transactional mail through Resend. The only portal
// mail today is the welcome message on first-login provisioning; delivery
// failures are logged and never block session resolution.
package email

import (
	"fmt"

	"github.com/resendlabs/resend-go"

	"github.com/kirtipatel215/IMS-sub000/internal/domain/user"
	"github.com/kirtipatel215/IMS-sub000/internal/infrastructure/observability/logging"
)

// Service is the outbound-mail contract used by the session layer.
type Service interface {
	SendWelcome(p *user.Principal) error
}

// ResendClient sends mail through the Resend API.
type ResendClient struct {
	client *resend.Client
	from   string
	logger *logging.ChanneledLogger
}

// NewResendClient creates a Resend-backed mail service.
func NewResendClient(apiKey, from string, logger *logging.ChanneledLogger) *ResendClient {
	return &ResendClient{
		client: resend.NewClient(apiKey),
		from:   from,
		logger: logger,
	}
}

// SendWelcome mails a new portal member after their profile is provisioned.
func (c *ResendClient) SendWelcome(p *user.Principal) error {
	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{p.Email},
		Subject: "Welcome to the Internship Portal",
		Html:    welcomeBody(p),
	}

	sent, err := c.client.Emails.Send(params)
	if err != nil {
		c.logger.Email().Error("Welcome email failed", "error", err.Error(), "to", p.Email)
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	c.logger.Email().Info("Welcome email sent", "to", p.Email, "messageId", sent.Id)
	return nil
}

func welcomeBody(p *user.Principal) string {
	roleLine := ""
	switch p.Role {
	case user.RoleStudent:
		roleLine = fmt.Sprintf("<p>You are registered as a student (%s, %s). Browse opportunities and file your internship requests from your dashboard.</p>",
			p.RollNumber, p.Department)
	case user.RoleTeacher:
		roleLine = "<p>You are registered as a mentor. Pending internship requests from your students will appear on your dashboard.</p>"
	case user.RolePlacementOfficer:
		roleLine = "<p>You are registered with the placement cell. You can post opportunities and issue certificates.</p>"
	case user.RoleAdmin:
		roleLine = "<p>You have administrator access.</p>"
	}

	return fmt.Sprintf(`<h2>Welcome, %s!</h2>
<p>Your internship portal account is ready.</p>
%s
<p>Training &amp; Placement Cell</p>`, p.Name, roleLine)
}

// NoopClient is wired when no API key is configured.
type NoopClient struct {
	logger *logging.ChanneledLogger
}

// NewNoopClient creates a mail service that only logs.
func NewNoopClient(logger *logging.ChanneledLogger) *NoopClient {
	return &NoopClient{logger: logger}
}

// SendWelcome logs the skipped delivery.
func (c *NoopClient) SendWelcome(p *user.Principal) error {
	c.logger.Email().Debug("Email disabled, welcome mail skipped", "to", p.Email)
	return nil
}
