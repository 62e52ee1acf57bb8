package notify

import (
	"context"
	"log/slog"

	"github.com/wrenhall/warbler-api/internal/domain"
)

// LogNotifier writes notifications to the structured log instead of
// delivering them. Used in development and when no SMTP server is
// configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "log_notifier")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, job *domain.TranscriptionJob, succeeded bool) error {
	n.logger.InfoContext(ctx, "terminal notification",
		"job_id", job.ID,
		"owner", job.OwnerEmail,
		"succeeded", succeeded,
		"subject", Subject(job, succeeded))
	return nil
}
