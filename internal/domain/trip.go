package domain

import "time"

// TripStatus represents the current status of a trip session.
type TripStatus string

const (
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
	TripStatusCancelled  TripStatus = "CANCELLED"
)

// Terminal reports whether the status admits no further transitions.
func (s TripStatus) Terminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// TripSession represents one trip of a driver's day. At most one session
// per (driver, date) may be IN_PROGRESS at a time.
type TripSession struct {
	ID          string
	DriverID    string
	TripDate    string // local calendar day, YYYY-MM-DD
	Sequence    int    // 1-based per driver per day
	Capacity    int
	Required    int // passengers needed for the trip to qualify
	Passengers  int
	Status      TripStatus
	StartedAt   time.Time
	CompletedAt time.Time
}

// RequiredPassengers returns the qualification threshold for a vehicle:
// ceil(0.8 * capacity).
func RequiredPassengers(capacity int) int {
	return (capacity*4 + 4) / 5
}

// Occupancy returns scanned passengers as a fraction of capacity.
func (t *TripSession) Occupancy() float64 {
	if t.Capacity == 0 {
		return 0
	}
	return float64(t.Passengers) / float64(t.Capacity)
}

// Qualifying reports whether the trip counts toward the driver's daily
// qualification: completed with occupancy at or above the threshold.
// A manual close below threshold completes the trip but does not qualify.
func (t *TripSession) Qualifying() bool {
	return t.Status == TripStatusCompleted && t.Passengers >= t.Required
}

// ScanEvent records a ticket credited to a trip. A ticket reference
// appears in exactly one ScanEvent system-wide.
type ScanEvent struct {
	ID             string
	TicketRef      string
	TripID         string
	PassengerOrder int // 1-based, contiguous within the trip
	ScannedAt      time.Time
}
