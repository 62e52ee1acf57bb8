package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/wrenhall/warbler-api/internal/domain"
)

// SMTPConfig holds connection settings for the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// SMTPNotifier sends terminal-state mail over SMTP.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger *slog.Logger

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates an SMTPNotifier.
func NewSMTPNotifier(cfg SMTPConfig, logger *slog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:    cfg,
		logger: logger.With("component", "smtp_notifier"),
		send:   smtp.SendMail,
	}
}

// Notify implements Notifier. Errors are returned for the caller to log;
// they never influence job state.
func (n *SMTPNotifier) Notify(ctx context.Context, job *domain.TranscriptionJob, succeeded bool) error {
	if job.OwnerEmail == "" {
		return fmt.Errorf("job %s has no owner email", job.ID)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.cfg.From, job.OwnerEmail, Subject(job, succeeded), Body(job, succeeded),
	))

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, auth, n.cfg.From, []string{job.OwnerEmail}, msg); err != nil {
		return fmt.Errorf("failed to send notification mail: %w", err)
	}

	n.logger.InfoContext(ctx, "sent terminal notification",
		"job_id", job.ID,
		"owner", job.OwnerEmail,
		"succeeded", succeeded)
	return nil
}
