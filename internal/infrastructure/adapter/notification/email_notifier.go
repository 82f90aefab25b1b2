package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// SMTPConfig holds mail server settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailSender delivers composed messages; *gomail.Dialer satisfies it
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier mails notifications to the address on the user's account.
// Users without an email address are skipped.
type EmailNotifier struct {
	sender MailSender
	from   string
	uow    persistence.UnitOfWork
	logger coreport.Logger
}

// NewEmailNotifier creates an SMTP notifier
func NewEmailNotifier(cfg SMTPConfig, uow persistence.UnitOfWork, logger coreport.Logger) *EmailNotifier {
	return NewEmailNotifierWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, uow, logger)
}

// NewEmailNotifierWithSender creates a notifier delivering through sender
func NewEmailNotifierWithSender(sender MailSender, from string, uow persistence.UnitOfWork, logger coreport.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender: sender,
		from:   from,
		uow:    uow,
		logger: logger,
	}
}

var _ notification.Notifier = (*EmailNotifier)(nil)

// Notify looks up the recipient and sends one plain text mail
func (n *EmailNotifier) Notify(ctx context.Context, msg notification.Notification) error {
	user, err := n.uow.GetUserRepository(ctx).GetByID(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if user.Email == "" {
		n.logger.Debug("Skipping email notification, no address on file", map[string]any{
			"user_id": msg.UserID.String(),
			"kind":    string(msg.Kind),
		})
		return nil
	}

	if err := n.sender.DialAndSend(n.compose(user.Email, user.FullName, msg)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (n *EmailNotifier) compose(to, name string, msg notification.Notification) *gomail.Message {
	subject := msg.Title
	if subject == "" {
		subject = "Account notification"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetAddressHeader("To", to, name)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", msg.Message)
	return m
}
