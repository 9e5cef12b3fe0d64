package repository

import (
	"context"
	"time"

	"fleet/internal/domain"
)

// AttendanceRegistry exposes worker attendance state. The registry owns
// the worker records; the core only lists and force-closes sessions.
type AttendanceRegistry interface {
	// ListCheckedIn returns every worker currently checked in.
	ListCheckedIn(ctx context.Context) ([]*domain.Worker, error)

	// ForceCheckout checks the worker out at the given time and returns
	// the elapsed hours since the last check-in. Calling it on an
	// already-checked-out worker is a no-op success returning 0.
	ForceCheckout(ctx context.Context, workerID string, at time.Time) (float64, error)
}
