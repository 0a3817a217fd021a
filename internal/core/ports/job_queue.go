package ports

import (
	"context"

	"github.com/99minutos/accounts-api/internal/core/domain"
)

// JobQueue accepts fire-and-forget work. Submit never waits for execution.
type JobQueue interface {
	Submit(ctx context.Context, name, queue string, payload any) (string, error)
}

// TaskStore records and reports job outcomes.
type TaskStore interface {
	SetStatus(ctx context.Context, taskID string, status domain.TaskStatus, result any) error
	Get(ctx context.Context, taskID string) (*domain.TaskResult, error)
}

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
