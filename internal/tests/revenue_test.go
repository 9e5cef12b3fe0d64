package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// ──────────────────────────────────────────────
// 3. REVENUE DISTRIBUTION
// ──────────────────────────────────────────────

type revenueFixture struct {
	tripRepo    *MockTripRepository
	salesLedger *MockSalesLedger
	cache       *MockSnapshotCache
	service     *service.RevenueService
}

func newRevenueFixture() *revenueFixture {
	f := &revenueFixture{
		tripRepo:    NewMockTripRepository(),
		salesLedger: NewMockSalesLedger(),
		cache:       NewMockSnapshotCache(),
	}
	qualification := service.NewQualificationService(f.tripRepo)
	f.service = service.NewRevenueService(f.salesLedger, f.tripRepo, qualification, f.cache)
	return f
}

// qualifyDriver seeds two threshold-meeting completed trips for the date.
func (f *revenueFixture) qualifyDriver(driverID, date string) {
	seedTrip(f.tripRepo, driverID, date, 1, 10, 8, domain.TripStatusCompleted)
	seedTrip(f.tripRepo, driverID, date, 2, 10, 9, domain.TripStatusCompleted)
}

// sellTickets seeds n sold tickets of the given amount on the date.
func (f *revenueFixture) sellTickets(date string, n int, amount int64) {
	for i := 0; i < n; i++ {
		f.salesLedger.AddTicket(fmt.Sprintf("TK-%s-%d", date, i), date, amount)
	}
}

func TestRevenue_SplitWithTwoQualifiedDrivers(t *testing.T) {
	t.Parallel()

	f := newRevenueFixture()
	f.sellTickets("2026-03-02", 20, 5000) // 100000 gross
	f.qualifyDriver("driver-1", "2026-03-02")
	f.qualifyDriver("driver-2", "2026-03-02")

	snapshot, err := f.service.ComputeDistribution(context.Background(), "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.TotalRevenue != 100000 {
		t.Errorf("expected gross 100000, got %d", snapshot.TotalRevenue)
	}
	if snapshot.TotalTickets != 20 {
		t.Errorf("expected 20 tickets, got %d", snapshot.TotalTickets)
	}
	if snapshot.CompanyShare != 10000 {
		t.Errorf("expected company share 10000, got %d", snapshot.CompanyShare)
	}
	if snapshot.StationShare != 5000 {
		t.Errorf("expected station share 5000, got %d", snapshot.StationShare)
	}
	if snapshot.DriverPool != 85000 {
		t.Errorf("expected driver pool 85000, got %d", snapshot.DriverPool)
	}
	if snapshot.PerDriverShare != 42500 {
		t.Errorf("expected per-driver share 42500, got %d", snapshot.PerDriverShare)
	}
	if snapshot.Remainder != 0 {
		t.Errorf("expected no remainder, got %d", snapshot.Remainder)
	}
	if len(snapshot.QualifiedDrivers) != 2 {
		t.Errorf("expected 2 qualified drivers, got %v", snapshot.QualifiedDrivers)
	}
}

func TestRevenue_NoQualifiedDriversLeavesPoolUnallocated(t *testing.T) {
	t.Parallel()

	f := newRevenueFixture()
	f.sellTickets("2026-03-02", 10, 5000) // 50000 gross
	// One qualifying trip only: nobody clears the bar.
	seedTrip(f.tripRepo, "driver-1", "2026-03-02", 1, 10, 8, domain.TripStatusCompleted)

	snapshot, err := f.service.ComputeDistribution(context.Background(), "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.DriverPool != 42500 {
		t.Errorf("expected driver pool 42500, got %d", snapshot.DriverPool)
	}
	if snapshot.PerDriverShare != 0 {
		t.Errorf("expected per-driver share 0, got %d", snapshot.PerDriverShare)
	}
	if snapshot.Remainder != snapshot.DriverPool {
		t.Errorf("expected whole pool unallocated, got remainder %d", snapshot.Remainder)
	}
}

func TestRevenue_IntegerDivisionRemainderSurfaced(t *testing.T) {
	t.Parallel()

	f := newRevenueFixture()
	// 100001 gross; pool rounds to 85001, which does not divide by 2.
	f.sellTickets("2026-03-02", 1, 100001)
	f.qualifyDriver("driver-1", "2026-03-02")
	f.qualifyDriver("driver-2", "2026-03-02")

	snapshot, err := f.service.ComputeDistribution(context.Background(), "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.DriverPool != 85001 {
		t.Errorf("expected driver pool 85001, got %d", snapshot.DriverPool)
	}
	if snapshot.PerDriverShare != 42500 {
		t.Errorf("expected per-driver share 42500, got %d", snapshot.PerDriverShare)
	}
	if snapshot.Remainder != 1 {
		t.Errorf("expected remainder 1, got %d", snapshot.Remainder)
	}
}

func TestRevenue_LedgerFailurePropagates(t *testing.T) {
	t.Parallel()

	f := newRevenueFixture()
	ledgerDown := errors.New("sales ledger unavailable")
	f.salesLedger.SumRevenueError = ledgerDown

	_, err := f.service.ComputeDistribution(context.Background(), "2026-03-02", "2026-03-02")
	if !errors.Is(err, ledgerDown) {
		t.Errorf("expected ledger error to propagate, got %v", err)
	}
}

func TestRevenue_SecondCallServedFromCache(t *testing.T) {
	t.Parallel()

	f := newRevenueFixture()
	f.sellTickets("2026-03-02", 20, 5000)
	f.qualifyDriver("driver-1", "2026-03-02")

	first, err := f.service.ComputeDistribution(context.Background(), "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.cache.SetCallCount != 1 {
		t.Errorf("expected one cache write, got %d", f.cache.SetCallCount)
	}

	// Take the ledger away: a cache hit must not touch it.
	f.salesLedger.SumRevenueError = errors.New("sales ledger unavailable")

	second, err := f.service.ComputeDistribution(context.Background(), "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("expected cached snapshot, got error: %v", err)
	}
	if second.TotalRevenue != first.TotalRevenue || second.PerDriverShare != first.PerDriverShare {
		t.Errorf("cached snapshot differs: %+v vs %+v", second, first)
	}
}

func TestRevenue_DriverDayReport(t *testing.T) {
	t.Parallel()

	f := newRevenueFixture()
	f.sellTickets("2026-03-02", 20, 5000) // 100000 gross, pool 85000
	f.qualifyDriver("driver-1", "2026-03-02")
	// A below-threshold completion and a cancellation alongside.
	seedTrip(f.tripRepo, "driver-1", "2026-03-02", 3, 10, 5, domain.TripStatusCompleted)
	seedTrip(f.tripRepo, "driver-1", "2026-03-02", 4, 10, 2, domain.TripStatusCancelled)

	report, err := f.service.DriverDayReport(context.Background(), "driver-1", "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.CompletedTrips != 3 {
		t.Errorf("expected 3 completed trips, got %d", report.CompletedTrips)
	}
	if report.QualifyingTrips != 2 {
		t.Errorf("expected 2 qualifying trips, got %d", report.QualifyingTrips)
	}
	if !report.Qualified {
		t.Error("expected driver to be qualified")
	}
	// Occupancies 80%, 90%, 50% average to 73.33…%.
	if report.OccupancyPct < 73.3 || report.OccupancyPct > 73.4 {
		t.Errorf("expected average occupancy ~73.3%%, got %.2f", report.OccupancyPct)
	}
	if report.Share != 85000 {
		t.Errorf("expected sole qualified driver to take the pool, got %d", report.Share)
	}
}

func TestRevenue_DriverShareZeroWhenNotQualified(t *testing.T) {
	t.Parallel()

	f := newRevenueFixture()
	f.sellTickets("2026-03-02", 20, 5000)
	f.qualifyDriver("driver-1", "2026-03-02")

	share, err := f.service.DriverShare(context.Background(), "driver-2", "2026-03-02", "2026-03-02")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if share != 0 {
		t.Errorf("expected zero share for unqualified driver, got %d", share)
	}
}
