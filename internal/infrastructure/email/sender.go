package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/amalthea-hq/expensehub/internal/application/port"
)

// Config holds SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender implements port.MailSender over SMTP
type Sender struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

// NewSender creates a new SMTP mail sender
func NewSender(cfg Config, logger *zap.Logger) (*Sender, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &Sender{
		client: client,
		from:   cfg.From,
		logger: logger,
	}, nil
}

// SendCredentials emails a newly created user their generated password
func (s *Sender) SendCredentials(ctx context.Context, to, fullName, password string) error {
	body := fmt.Sprintf(`Hello %s,

An account has been created for you on ExpenseHub.

Login email: %s
Temporary password: %s

Please sign in and change your password.
`, fullName, to, password)

	return s.send(ctx, to, "Your ExpenseHub account", body)
}

// SendExpenseStatus notifies an employee that their expense reached a
// terminal status.
func (s *Sender) SendExpenseStatus(ctx context.Context, to, fullName string, expenseID int64, status string) error {
	body := fmt.Sprintf(`Hello %s,

Your expense claim #%d has been %s.

Sign in to ExpenseHub to see the full approval history.
`, fullName, expenseID, status)

	subject := fmt.Sprintf("Expense #%d %s", expenseID, status)
	return s.send(ctx, to, subject, body)
}

func (s *Sender) send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("Failed to send email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// Verify interface compliance
var _ port.MailSender = (*Sender)(nil)
