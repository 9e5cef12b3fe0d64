package postgres

import (
	"context"
	"database/sql"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// ScanRepository is a PostgreSQL implementation of repository.ScanLedger.
// Global ticket uniqueness rides on a unique index over ticket_ref, so
// the check-and-insert is a single atomic statement for all drivers.
type ScanRepository struct {
	q Querier
}

// NewScanRepository creates a new PostgreSQL scan ledger.
func NewScanRepository(db *sql.DB) *ScanRepository {
	return &ScanRepository{q: db}
}

// Record appends a scan event.
func (r *ScanRepository) Record(ctx context.Context, event *domain.ScanEvent) error {
	query := `
		INSERT INTO scan_events (id, ticket_ref, trip_id, passenger_order, scanned_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		event.ID,
		event.TicketRef,
		event.TripID,
		event.PassengerOrder,
		event.ScannedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// Remove deletes the scan event holding a ticket reference.
func (r *ScanRepository) Remove(ctx context.Context, ticketRef string) error {
	query := `DELETE FROM scan_events WHERE ticket_ref = $1`

	_, err := r.q.ExecContext(ctx, query, ticketRef)
	return err
}

// ListByTrip retrieves the scans of a trip ordered by passenger order.
func (r *ScanRepository) ListByTrip(ctx context.Context, tripID string) ([]*domain.ScanEvent, error) {
	query := `
		SELECT id, ticket_ref, trip_id, passenger_order, scanned_at
		FROM scan_events
		WHERE trip_id = $1
		ORDER BY passenger_order
	`

	rows, err := r.q.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.ScanEvent
	for rows.Next() {
		var event domain.ScanEvent
		if err := rows.Scan(
			&event.ID,
			&event.TicketRef,
			&event.TripID,
			&event.PassengerOrder,
			&event.ScannedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}

// Ensure ScanRepository implements repository.ScanLedger.
var _ repository.ScanLedger = (*ScanRepository)(nil)
