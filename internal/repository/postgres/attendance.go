package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// AttendanceRepository is a PostgreSQL implementation of
// repository.AttendanceRegistry.
type AttendanceRepository struct {
	q Querier
}

// NewAttendanceRepository creates a new PostgreSQL attendance registry.
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{q: db}
}

// ListCheckedIn returns every worker currently checked in.
func (r *AttendanceRepository) ListCheckedIn(ctx context.Context) ([]*domain.Worker, error) {
	query := `
		SELECT id, name, role, attendance_status, last_check_in_at, last_check_out_at
		FROM workers
		WHERE attendance_status = $1
		ORDER BY last_check_in_at
	`

	rows, err := r.q.QueryContext(ctx, query, domain.AttendanceCheckedIn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workers []*domain.Worker
	for rows.Next() {
		var w domain.Worker
		var checkIn, checkOut sql.NullTime

		if err := rows.Scan(&w.ID, &w.Name, &w.Role, &w.Attendance, &checkIn, &checkOut); err != nil {
			return nil, err
		}
		if checkIn.Valid {
			w.LastCheckInAt = checkIn.Time
		}
		if checkOut.Valid {
			w.LastCheckOutAt = checkOut.Time
		}

		workers = append(workers, &w)
	}

	return workers, rows.Err()
}

// ForceCheckout checks the worker out at the given time and returns the
// elapsed hours since the last check-in. A worker already checked out is
// a no-op success returning 0.
func (r *AttendanceRepository) ForceCheckout(ctx context.Context, workerID string, at time.Time) (float64, error) {
	query := `
		SELECT attendance_status, last_check_in_at
		FROM workers WHERE id = $1
	`

	var status domain.AttendanceStatus
	var checkIn sql.NullTime
	err := r.q.QueryRowContext(ctx, query, workerID).Scan(&status, &checkIn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}

	if status == domain.AttendanceCheckedOut {
		return 0, nil
	}

	update := `
		UPDATE workers
		SET attendance_status = $1, last_check_out_at = $2
		WHERE id = $3 AND attendance_status = $4
	`

	result, err := r.q.ExecContext(ctx, update, domain.AttendanceCheckedOut, at, workerID, domain.AttendanceCheckedIn)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	// Lost a race with another checkout; still a success.
	if rowsAffected == 0 {
		return 0, nil
	}

	var elapsed float64
	if checkIn.Valid {
		elapsed = at.Sub(checkIn.Time).Hours()
	}

	return elapsed, nil
}

// Ensure AttendanceRepository implements repository.AttendanceRegistry.
var _ repository.AttendanceRegistry = (*AttendanceRepository)(nil)
