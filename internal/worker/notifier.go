package worker

import (
	"context"

	"github.com/wrenhall/warbler-api/internal/domain"
)

// Notifier is the terminal-notification dependency of the worker
// components. Satisfied by the implementations in internal/notify.
type Notifier interface {
	Notify(ctx context.Context, job *domain.TranscriptionJob, succeeded bool) error
}
