package service

import (
	"context"
	"math"

	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
)

// RevenueService splits gross ticket revenue into company, station, and
// driver-pool shares and divides the pool across qualified drivers.
// Computation is read-only; a failing collaborator fails the whole
// snapshot rather than returning a partial result.
type RevenueService struct {
	salesLedger   repository.SalesLedger
	tripRepo      repository.TripRepository
	qualification *QualificationService
	cache         redis.SnapshotCacheInterface // optional
}

// NewRevenueService creates a new RevenueService. cache may be nil.
func NewRevenueService(
	salesLedger repository.SalesLedger,
	tripRepo repository.TripRepository,
	qualification *QualificationService,
	cache redis.SnapshotCacheInterface,
) *RevenueService {
	return &RevenueService{
		salesLedger:   salesLedger,
		tripRepo:      tripRepo,
		qualification: qualification,
		cache:         cache,
	}
}

// ComputeDistribution computes the revenue split for [start, end].
//
// Shares are rounded from the gross total; the per-driver share is the
// floor of pool/n. The integer-division leftover is surfaced as
// Remainder and never redistributed. With no qualified driver the whole
// pool is reported unallocated.
func (s *RevenueService) ComputeDistribution(ctx context.Context, start, end string) (*domain.RevenueSnapshot, error) {
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, err := s.cache.GetSnapshot(ctx, start, end); err == nil && cached != nil {
			return cached, nil
		}
	}

	totals, err := s.salesLedger.SumRevenue(ctx, start, end)
	if err != nil {
		return nil, err
	}

	qualified, err := s.qualification.QualifiedDriversRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.RevenueSnapshot{
		StartDate:        start,
		EndDate:          end,
		TotalRevenue:     totals.TotalRevenue,
		TotalTickets:     totals.TotalTickets,
		CompanyShare:     pctShare(totals.TotalRevenue, domain.CompanySharePct),
		StationShare:     pctShare(totals.TotalRevenue, domain.StationSharePct),
		DriverPool:       pctShare(totals.TotalRevenue, domain.DriverPoolPct),
		QualifiedDrivers: qualified,
	}

	if n := int64(len(qualified)); n > 0 {
		snapshot.PerDriverShare = snapshot.DriverPool / n
		snapshot.Remainder = snapshot.DriverPool - snapshot.PerDriverShare*n
	} else {
		snapshot.Remainder = snapshot.DriverPool
	}

	if s.cache != nil {
		_ = s.cache.SetSnapshot(ctx, snapshot)
	}

	return snapshot, nil
}

// DriverShare returns one driver's share for the range: the per-driver
// share if qualified, zero otherwise.
func (s *RevenueService) DriverShare(ctx context.Context, driverID, start, end string) (int64, error) {
	if driverID == "" {
		return 0, ErrInvalidDriverID
	}

	snapshot, err := s.ComputeDistribution(ctx, start, end)
	if err != nil {
		return 0, err
	}

	for _, id := range snapshot.QualifiedDrivers {
		if id == driverID {
			return snapshot.PerDriverShare, nil
		}
	}
	return 0, nil
}

// DriverDayReport summarizes a driver's date: completed and qualifying
// trip counts, average occupancy, qualification flag, and share.
func (s *RevenueService) DriverDayReport(ctx context.Context, driverID, date string) (*domain.DriverDayReport, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if err := validateDateRange(date, date); err != nil {
		return nil, err
	}

	trips, err := s.tripRepo.ListByDriverDate(ctx, driverID, date)
	if err != nil {
		return nil, err
	}

	report := &domain.DriverDayReport{
		DriverID: driverID,
		Date:     date,
	}

	var occupancySum float64
	for _, trip := range trips {
		if trip.Status != domain.TripStatusCompleted {
			continue
		}
		report.CompletedTrips++
		occupancySum += trip.Occupancy()
		if trip.Qualifying() {
			report.QualifyingTrips++
		}
	}
	if report.CompletedTrips > 0 {
		report.OccupancyPct = occupancySum / float64(report.CompletedTrips) * 100
	}
	report.Qualified = report.QualifyingTrips >= MinQualifyingTrips

	share, err := s.DriverShare(ctx, driverID, date, date)
	if err != nil {
		return nil, err
	}
	report.Share = share

	return report, nil
}

// pctShare rounds pct% of an integer amount.
func pctShare(amount int64, pct int) int64 {
	return int64(math.Round(float64(amount) * float64(pct) / 100))
}
