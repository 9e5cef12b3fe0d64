package domain

// Revenue split percentages. Amounts are integer minor units.
const (
	CompanySharePct = 10
	StationSharePct = 5
	DriverPoolPct   = 85
)

// RevenueSnapshot is the computed distribution of ticket revenue over a
// date range. Derived on demand; never stored.
type RevenueSnapshot struct {
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	TotalRevenue     int64    `json:"total_revenue"`
	TotalTickets     int      `json:"total_tickets"`
	CompanyShare     int64    `json:"company_share"`
	StationShare     int64    `json:"station_share"`
	DriverPool       int64    `json:"driver_pool"`
	QualifiedDrivers []string `json:"qualified_drivers"`
	PerDriverShare   int64    `json:"per_driver_share"`
	// Remainder is the unallocated part of the driver pool: the integer
	// division leftover, or the whole pool when no driver qualified.
	Remainder int64 `json:"remainder"`
}

// DriverDayReport summarizes a single driver's day for reporting.
type DriverDayReport struct {
	DriverID        string  `json:"driver_id"`
	Date            string  `json:"date"`
	CompletedTrips  int     `json:"completed_trips"`
	QualifyingTrips int     `json:"qualifying_trips"`
	OccupancyPct    float64 `json:"occupancy_pct"` // average over completed trips
	Qualified       bool    `json:"qualified"`
	Share           int64   `json:"share"`
}
