package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// SchedulerRepository is a PostgreSQL implementation of
// repository.SchedulerRepository. Settings live in a single-row table;
// execution logs are append-only with per-worker outcomes as JSONB.
type SchedulerRepository struct {
	q Querier
}

// NewSchedulerRepository creates a new PostgreSQL scheduler repository.
func NewSchedulerRepository(db *sql.DB) *SchedulerRepository {
	return &SchedulerRepository{q: db}
}

// GetSettings retrieves the current scheduler settings.
func (r *SchedulerRepository) GetSettings(ctx context.Context) (*domain.SchedulerSettings, error) {
	query := `
		SELECT enabled, cutoff, timezone, weekdays, last_run_at, last_affected
		FROM scheduler_settings WHERE id = 1
	`

	var s domain.SchedulerSettings
	var weekdays []byte
	var lastRun sql.NullTime

	err := r.q.QueryRowContext(ctx, query).Scan(
		&s.Enabled,
		&s.Cutoff,
		&s.Timezone,
		&weekdays,
		&lastRun,
		&s.LastAffected,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if len(weekdays) > 0 {
		if err := json.Unmarshal(weekdays, &s.Weekdays); err != nil {
			return nil, err
		}
	}
	if lastRun.Valid {
		s.LastRunAt = lastRun.Time
	}

	return &s, nil
}

// SaveSettings persists the settings, replacing any previous value.
func (r *SchedulerRepository) SaveSettings(ctx context.Context, settings *domain.SchedulerSettings) error {
	weekdays, err := json.Marshal(settings.Weekdays)
	if err != nil {
		return err
	}

	var lastRun sql.NullTime
	if !settings.LastRunAt.IsZero() {
		lastRun = sql.NullTime{Time: settings.LastRunAt, Valid: true}
	}

	query := `
		INSERT INTO scheduler_settings (id, enabled, cutoff, timezone, weekdays, last_run_at, last_affected)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET enabled = $1, cutoff = $2, timezone = $3, weekdays = $4, last_run_at = $5, last_affected = $6
	`

	_, err = r.q.ExecContext(ctx, query,
		settings.Enabled,
		settings.Cutoff,
		settings.Timezone,
		weekdays,
		lastRun,
		settings.LastAffected,
	)

	return err
}

// AppendExecution appends one execution log entry.
func (r *SchedulerRepository) AppendExecution(ctx context.Context, log *domain.ExecutionLog) error {
	outcomes, err := json.Marshal(log.Outcomes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO execution_logs (id, executed_at, execution_type, total_workers, succeeded, failed, outcomes, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var topErr sql.NullString
	if log.Error != "" {
		topErr = sql.NullString{String: log.Error, Valid: true}
	}

	_, err = r.q.ExecContext(ctx, query,
		log.ID,
		log.ExecutedAt,
		log.Type,
		log.TotalWorkers,
		log.Succeeded,
		log.Failed,
		outcomes,
		topErr,
	)

	return err
}

// RecentExecutions returns the most recent entries, newest first.
func (r *SchedulerRepository) RecentExecutions(ctx context.Context, limit int) ([]*domain.ExecutionLog, error) {
	query := `
		SELECT id, executed_at, execution_type, total_workers, succeeded, failed, outcomes, error
		FROM execution_logs
		ORDER BY executed_at DESC
		LIMIT $1
	`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.ExecutionLog
	for rows.Next() {
		var log domain.ExecutionLog
		var outcomes []byte
		var topErr sql.NullString

		if err := rows.Scan(
			&log.ID,
			&log.ExecutedAt,
			&log.Type,
			&log.TotalWorkers,
			&log.Succeeded,
			&log.Failed,
			&outcomes,
			&topErr,
		); err != nil {
			return nil, err
		}

		if len(outcomes) > 0 {
			if err := json.Unmarshal(outcomes, &log.Outcomes); err != nil {
				return nil, err
			}
		}
		if topErr.Valid {
			log.Error = topErr.String
		}

		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// Ensure SchedulerRepository implements repository.SchedulerRepository.
var _ repository.SchedulerRepository = (*SchedulerRepository)(nil)
