package service

import (
	"context"
	"sort"
	"time"

	"fleet/internal/repository"
)

// MinQualifyingTrips is the number of qualifying trips a driver needs in
// one day to be eligible for the revenue share.
const MinQualifyingTrips = 2

// QualificationService answers which drivers met the daily qualifying
// bar. It reads only persisted completed trips, so results are
// eventually consistent with live scanning.
type QualificationService struct {
	tripRepo repository.TripRepository
}

// NewQualificationService creates a new QualificationService.
func NewQualificationService(tripRepo repository.TripRepository) *QualificationService {
	return &QualificationService{tripRepo: tripRepo}
}

// QualifiedDrivers returns the drivers qualified on a single date, sorted.
func (s *QualificationService) QualifiedDrivers(ctx context.Context, date string) ([]string, error) {
	return s.QualifiedDriversRange(ctx, date, date)
}

// QualifiedDriversRange returns the union of the per-day qualified sets
// across [start, end]: a driver qualifies for the range if qualified on
// at least one day in it.
func (s *QualificationService) QualifiedDriversRange(ctx context.Context, start, end string) ([]string, error) {
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	counts, err := s.tripRepo.QualifyingCounts(ctx, start, end)
	if err != nil {
		return nil, err
	}

	var qualified []string
	for driverID, perDay := range counts {
		for _, n := range perDay {
			if n >= MinQualifyingTrips {
				qualified = append(qualified, driverID)
				break
			}
		}
	}

	sort.Strings(qualified)
	return qualified, nil
}

// IsQualified reports whether the driver qualified on the given date.
func (s *QualificationService) IsQualified(ctx context.Context, driverID, date string) (bool, error) {
	if driverID == "" {
		return false, ErrInvalidDriverID
	}

	qualified, err := s.QualifiedDrivers(ctx, date)
	if err != nil {
		return false, err
	}

	for _, id := range qualified {
		if id == driverID {
			return true, nil
		}
	}
	return false, nil
}

// validateDateRange checks both bounds are YYYY-MM-DD and ordered.
func validateDateRange(start, end string) error {
	from, err := time.Parse(tripDateLayout, start)
	if err != nil {
		return ErrInvalidDate
	}
	to, err := time.Parse(tripDateLayout, end)
	if err != nil {
		return ErrInvalidDate
	}
	if to.Before(from) {
		return ErrInvalidDate
	}
	return nil
}
