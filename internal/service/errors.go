package service

import "errors"

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidTicketRef is returned when ticket reference is empty.
	ErrInvalidTicketRef = errors.New("invalid ticket reference")

	// ErrInvalidCapacity is returned when vehicle capacity is not positive.
	ErrInvalidCapacity = errors.New("invalid vehicle capacity")

	// ErrInvalidDate is returned when a date is not formatted YYYY-MM-DD
	// or a range end precedes its start.
	ErrInvalidDate = errors.New("invalid date or date range")

	// ErrTripAlreadyActive is returned when a driver starts a trip while
	// one is still in progress.
	ErrTripAlreadyActive = errors.New("driver already has an active trip")

	// ErrNoActiveTrip is returned when a scan, complete, or cancel is
	// attempted with no trip in progress.
	ErrNoActiveTrip = errors.New("no active trip for driver")

	// ErrDuplicateScan is returned when a ticket reference was already
	// credited to a trip anywhere in the system.
	ErrDuplicateScan = errors.New("ticket already scanned")

	// ErrTicketNotFound is returned when the ticket reference is unknown
	// to the sales ledger.
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrDriverBusy is returned when the driver's trip lock could not be
	// acquired within the wait window.
	ErrDriverBusy = errors.New("driver operation in progress")

	// ErrInvalidSettings is returned for malformed scheduler settings.
	ErrInvalidSettings = errors.New("invalid scheduler settings")
)
