package repository

import (
	"context"

	"fleet/internal/domain"
)

// SchedulerRepository persists scheduler settings and execution logs.
type SchedulerRepository interface {
	// GetSettings retrieves the current scheduler settings.
	// Returns ErrNotFound if none have been saved yet.
	GetSettings(ctx context.Context) (*domain.SchedulerSettings, error)

	// SaveSettings persists the settings, replacing any previous value.
	SaveSettings(ctx context.Context, settings *domain.SchedulerSettings) error

	// AppendExecution appends one execution log entry.
	AppendExecution(ctx context.Context, log *domain.ExecutionLog) error

	// RecentExecutions returns the most recent entries, newest first.
	RecentExecutions(ctx context.Context, limit int) ([]*domain.ExecutionLog, error)
}
