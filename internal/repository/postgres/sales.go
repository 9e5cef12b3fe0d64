package postgres

import (
	"context"
	"database/sql"

	"fleet/internal/repository"
)

// SalesRepository is a PostgreSQL implementation of repository.SalesLedger.
// The tickets table is written by the booking subsystem; this side only
// aggregates it.
type SalesRepository struct {
	q Querier
}

// NewSalesRepository creates a new PostgreSQL sales ledger.
func NewSalesRepository(db *sql.DB) *SalesRepository {
	return &SalesRepository{q: db}
}

// SumRevenue returns gross revenue and ticket count for [start, end].
func (r *SalesRepository) SumRevenue(ctx context.Context, start, end string) (repository.RevenueTotals, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM tickets
		WHERE sale_date BETWEEN $1 AND $2
	`

	var totals repository.RevenueTotals
	err := r.q.QueryRowContext(ctx, query, start, end).Scan(
		&totals.TotalRevenue,
		&totals.TotalTickets,
	)
	if err != nil {
		return repository.RevenueTotals{}, err
	}

	return totals, nil
}

// TicketExists reports whether a sold ticket with this reference exists.
func (r *SalesRepository) TicketExists(ctx context.Context, ticketRef string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM tickets WHERE ticket_ref = $1)`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, ticketRef).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}

// Ensure SalesRepository implements repository.SalesLedger.
var _ repository.SalesLedger = (*SalesRepository)(nil)
