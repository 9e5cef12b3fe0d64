package repository

import "context"

// RevenueTotals is the aggregate result of a ticket sales query.
type RevenueTotals struct {
	TotalRevenue int64
	TotalTickets int
}

// SalesLedger exposes the ticket sales records the core consumes.
// Ticket sale and booking lifecycle are owned elsewhere.
type SalesLedger interface {
	// SumRevenue returns gross revenue and ticket count for [start, end].
	SumRevenue(ctx context.Context, start, end string) (RevenueTotals, error)

	// TicketExists reports whether a sold ticket with this reference exists.
	TicketExists(ctx context.Context, ticketRef string) (bool, error)
}
