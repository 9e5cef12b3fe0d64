package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
//
// The trip_sessions table carries a partial unique index on
// (driver_id, trip_date) WHERE status = 'IN_PROGRESS', which backstops
// the one-active-trip-per-driver invariant at the storage layer.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// Create persists a new trip session.
func (r *TripRepository) Create(ctx context.Context, trip *domain.TripSession) error {
	query := `
		INSERT INTO trip_sessions (id, driver_id, trip_date, sequence, capacity, required, passengers, status, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var completedAt sql.NullTime
	if !trip.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: trip.CompletedAt, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.DriverID,
		trip.TripDate,
		trip.Sequence,
		trip.Capacity,
		trip.Required,
		trip.Passengers,
		trip.Status,
		trip.StartedAt,
		completedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByID retrieves a trip session by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.TripSession, error) {
	query := `
		SELECT id, driver_id, trip_date, sequence, capacity, required, passengers, status, started_at, completed_at
		FROM trip_sessions WHERE id = $1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetActiveByDriver retrieves the driver's IN_PROGRESS session for the
// given date. Returns nil if none exists.
func (r *TripRepository) GetActiveByDriver(ctx context.Context, driverID, date string) (*domain.TripSession, error) {
	query := `
		SELECT id, driver_id, trip_date, sequence, capacity, required, passengers, status, started_at, completed_at
		FROM trip_sessions
		WHERE driver_id = $1 AND trip_date = $2 AND status = $3
		LIMIT 1
	`

	trip, err := scanTrip(r.q.QueryRowContext(ctx, query, driverID, date, domain.TripStatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return trip, nil
}

// NextSequence returns the next trip sequence number for the driver/date.
func (r *TripRepository) NextSequence(ctx context.Context, driverID, date string) (int, error) {
	query := `
		SELECT COALESCE(MAX(sequence), 0) + 1
		FROM trip_sessions
		WHERE driver_id = $1 AND trip_date = $2
	`

	var next int
	if err := r.q.QueryRowContext(ctx, query, driverID, date).Scan(&next); err != nil {
		return 0, err
	}

	return next, nil
}

// Update persists occupancy and status changes for a session that is
// still IN_PROGRESS. Terminal sessions are immutable; updating one
// returns ErrNotFound.
func (r *TripRepository) Update(ctx context.Context, trip *domain.TripSession) error {
	query := `
		UPDATE trip_sessions
		SET passengers = $1, status = $2, completed_at = $3
		WHERE id = $4 AND status = $5
	`

	var completedAt sql.NullTime
	if !trip.CompletedAt.IsZero() {
		completedAt = sql.NullTime{Time: trip.CompletedAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query,
		trip.Passengers,
		trip.Status,
		completedAt,
		trip.ID,
		domain.TripStatusInProgress,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListByDriverDate retrieves all of a driver's sessions for a date.
func (r *TripRepository) ListByDriverDate(ctx context.Context, driverID, date string) ([]*domain.TripSession, error) {
	query := `
		SELECT id, driver_id, trip_date, sequence, capacity, required, passengers, status, started_at, completed_at
		FROM trip_sessions
		WHERE driver_id = $1 AND trip_date = $2
		ORDER BY sequence
	`

	rows, err := r.q.QueryContext(ctx, query, driverID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.TripSession
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// QualifyingCounts returns per driver, per date, the number of completed
// trips whose occupancy met the threshold.
func (r *TripRepository) QualifyingCounts(ctx context.Context, start, end string) (map[string]map[string]int, error) {
	query := `
		SELECT driver_id, trip_date, COUNT(*)
		FROM trip_sessions
		WHERE status = $1
		  AND passengers >= required
		  AND trip_date BETWEEN $2 AND $3
		GROUP BY driver_id, trip_date
	`

	rows, err := r.q.QueryContext(ctx, query, domain.TripStatusCompleted, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]map[string]int)
	for rows.Next() {
		var driverID, date string
		var n int
		if err := rows.Scan(&driverID, &date, &n); err != nil {
			return nil, err
		}
		if counts[driverID] == nil {
			counts[driverID] = make(map[string]int)
		}
		counts[driverID][date] = n
	}

	return counts, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*domain.TripSession, error) {
	var trip domain.TripSession
	var completedAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.DriverID,
		&trip.TripDate,
		&trip.Sequence,
		&trip.Capacity,
		&trip.Required,
		&trip.Passengers,
		&trip.Status,
		&trip.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}

	return &trip, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
