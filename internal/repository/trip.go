package repository

import (
	"context"

	"fleet/internal/domain"
)

// TripRepository defines the persistence operations for trip sessions.
type TripRepository interface {
	// Create persists a new trip session. Returns ErrDuplicate if an
	// IN_PROGRESS session already exists for the driver on that date.
	Create(ctx context.Context, trip *domain.TripSession) error

	// GetByID retrieves a trip session by ID.
	GetByID(ctx context.Context, id string) (*domain.TripSession, error)

	// GetActiveByDriver retrieves the driver's IN_PROGRESS session for
	// the given date. Returns nil if none exists.
	GetActiveByDriver(ctx context.Context, driverID, date string) (*domain.TripSession, error)

	// NextSequence returns the next trip sequence number for the driver
	// on the given date (1 for the first trip).
	NextSequence(ctx context.Context, driverID, date string) (int, error)

	// Update persists the session's occupancy and status. Only rows
	// still IN_PROGRESS are updated; ErrNotFound is returned when the
	// session is missing or already terminal.
	Update(ctx context.Context, trip *domain.TripSession) error

	// ListByDriverDate retrieves all of a driver's sessions for a date,
	// ordered by sequence.
	ListByDriverDate(ctx context.Context, driverID, date string) ([]*domain.TripSession, error)

	// QualifyingCounts returns, per driver and per date in [start, end],
	// the number of completed trips that met the occupancy threshold.
	QualifyingCounts(ctx context.Context, start, end string) (map[string]map[string]int, error)
}
