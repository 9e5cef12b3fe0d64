package repository

import (
	"context"

	"fleet/internal/domain"
)

// ScanLedger is the append-only record of tickets credited to trips.
// Uniqueness of a ticket reference is global across all drivers and all
// time, and the check-and-insert is atomic.
type ScanLedger interface {
	// Record appends a scan event. Returns ErrDuplicate if the ticket
	// reference has ever been recorded before, for any trip.
	Record(ctx context.Context, event *domain.ScanEvent) error

	// Remove deletes the scan event holding a ticket reference, freeing
	// it for a future scan. Used to roll back a credit whose trip
	// update failed.
	Remove(ctx context.Context, ticketRef string) error

	// ListByTrip retrieves the scans of a trip ordered by passenger order.
	ListByTrip(ctx context.Context, tripID string) ([]*domain.ScanEvent, error)
}
