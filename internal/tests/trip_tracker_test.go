package tests

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// ──────────────────────────────────────────────
// 1. TRIP LIFECYCLE AND TICKET SCANNING
// ──────────────────────────────────────────────

// tripFixture bundles the collaborators of a TripService under test.
type tripFixture struct {
	tripRepo    *MockTripRepository
	scanLedger  *MockScanLedger
	salesLedger *MockSalesLedger
	lockStore   *MockLockStore
	service     *service.TripService
}

func newTripFixture() *tripFixture {
	f := &tripFixture{
		tripRepo:    NewMockTripRepository(),
		scanLedger:  NewMockScanLedger(),
		salesLedger: NewMockSalesLedger(),
		lockStore:   NewMockLockStore(),
	}
	f.service = service.NewTripService(f.tripRepo, f.scanLedger, f.salesLedger, f.lockStore, nil)
	return f
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func TestStartTrip_CreatesSessionWithThreshold(t *testing.T) {
	t.Parallel()

	f := newTripFixture()

	trip, err := f.service.StartTrip(context.Background(), service.StartTripRequest{
		DriverID: "driver-1",
		Capacity: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trip.Required != 8 {
		t.Errorf("expected threshold 8 for capacity 10, got %d", trip.Required)
	}
	if trip.Sequence != 1 {
		t.Errorf("expected first trip sequence 1, got %d", trip.Sequence)
	}
	if trip.Status != domain.TripStatusInProgress {
		t.Errorf("expected status IN_PROGRESS, got %s", trip.Status)
	}
	if trip.TripDate != today() {
		t.Errorf("expected trip date %s, got %s", today(), trip.TripDate)
	}
}

func TestRequiredPassengers_CeilOfEightyPercent(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		capacity int
		want     int
	}{
		{capacity: 1, want: 1},
		{capacity: 4, want: 4},
		{capacity: 5, want: 4},
		{capacity: 7, want: 6},
		{capacity: 10, want: 8},
		{capacity: 16, want: 13},
		{capacity: 45, want: 36},
	}

	for _, tc := range testCases {
		if got := domain.RequiredPassengers(tc.capacity); got != tc.want {
			t.Errorf("capacity %d: expected threshold %d, got %d", tc.capacity, tc.want, got)
		}
	}
}

func TestStartTrip_SecondStartRejected(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()

	if _, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10})
	if !errors.Is(err, service.ErrTripAlreadyActive) {
		t.Errorf("expected ErrTripAlreadyActive, got %v", err)
	}
}

func TestStartTrip_InvalidInput(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()

	if _, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "", Capacity: 10}); !errors.Is(err, service.ErrInvalidDriverID) {
		t.Errorf("expected ErrInvalidDriverID, got %v", err)
	}
	if _, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 0}); !errors.Is(err, service.ErrInvalidCapacity) {
		t.Errorf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestScanTicket_NoActiveTrip(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.salesLedger.AddTicket("TK-1", today(), 5000)

	_, err := f.service.ScanTicket(context.Background(), "driver-1", "TK-1")
	if !errors.Is(err, service.ErrNoActiveTrip) {
		t.Errorf("expected ErrNoActiveTrip, got %v", err)
	}
}

func TestScanTicket_UnknownTicket(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()

	if _, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.service.ScanTicket(ctx, "driver-1", "TK-unsold")
	if !errors.Is(err, service.ErrTicketNotFound) {
		t.Errorf("expected ErrTicketNotFound, got %v", err)
	}
}

func TestScanTicket_DuplicateAcrossDrivers(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()
	f.salesLedger.AddTicket("TK-1", today(), 5000)

	if _, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-2", Capacity: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.service.ScanTicket(ctx, "driver-1", "TK-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Uniqueness is global, not per trip.
	_, err := f.service.ScanTicket(ctx, "driver-2", "TK-1")
	if !errors.Is(err, service.ErrDuplicateScan) {
		t.Errorf("expected ErrDuplicateScan, got %v", err)
	}

	other, err := f.service.ActiveTrip(ctx, "driver-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Passengers != 0 {
		t.Errorf("rejected scan must not change occupancy, got %d passengers", other.Passengers)
	}
}

func TestScanTicket_AutoCompletesAtThreshold(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()

	for i := 1; i <= 9; i++ {
		f.salesLedger.AddTicket(fmt.Sprintf("TK-%d", i), today(), 5000)
	}

	trip, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	completions := 0
	for i := 1; i <= 8; i++ {
		result, err := f.service.ScanTicket(ctx, "driver-1", fmt.Sprintf("TK-%d", i))
		if err != nil {
			t.Fatalf("scan %d: unexpected error: %v", i, err)
		}
		if result.PassengerOrder != i {
			t.Errorf("scan %d: expected passenger order %d, got %d", i, i, result.PassengerOrder)
		}
		if result.TripCompleted {
			completions++
			if i != 8 {
				t.Errorf("trip completed on scan %d, expected scan 8", i)
			}
		}
	}
	if completions != 1 {
		t.Errorf("expected exactly one completing scan, got %d", completions)
	}

	stored := f.tripRepo.GetTrip(trip.ID)
	if stored.Status != domain.TripStatusCompleted {
		t.Errorf("expected COMPLETED after threshold, got %s", stored.Status)
	}
	if stored.Passengers != 8 {
		t.Errorf("expected 8 passengers, got %d", stored.Passengers)
	}

	// The completed trip accepts no further scans.
	_, err = f.service.ScanTicket(ctx, "driver-1", "TK-9")
	if !errors.Is(err, service.ErrNoActiveTrip) {
		t.Errorf("expected ErrNoActiveTrip after completion, got %v", err)
	}
}

func TestScanTicket_FailedUpdateReleasesTicket(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()
	f.salesLedger.AddTicket("TK-1", today(), 5000)

	if _, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	storageDown := errors.New("storage unavailable")
	f.tripRepo.UpdateError = storageDown

	if _, err := f.service.ScanTicket(ctx, "driver-1", "TK-1"); !errors.Is(err, storageDown) {
		t.Fatalf("expected storage error, got %v", err)
	}

	// The failed scan must consume neither the ticket nor the order slot.
	f.tripRepo.UpdateError = nil
	result, err := f.service.ScanTicket(ctx, "driver-1", "TK-1")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if result.PassengerOrder != 1 {
		t.Errorf("expected passenger order 1 on retry, got %d", result.PassengerOrder)
	}
	if result.Trip.Passengers != 1 {
		t.Errorf("expected 1 passenger after retry, got %d", result.Trip.Passengers)
	}
}

func TestCompleteTrip_BelowThresholdStaysCompleted(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()
	f.salesLedger.AddTicket("TK-1", today(), 5000)

	trip, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.service.ScanTicket(ctx, "driver-1", "TK-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closed, err := f.service.CompleteTrip(ctx, "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed.Status != domain.TripStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", closed.Status)
	}
	if closed.Qualifying() {
		t.Error("trip closed below threshold must not qualify")
	}

	// Terminal sessions admit no further transitions.
	if _, err := f.service.CancelTrip(ctx, "driver-1"); !errors.Is(err, service.ErrNoActiveTrip) {
		t.Errorf("expected ErrNoActiveTrip for closed trip, got %v", err)
	}

	stored := f.tripRepo.GetTrip(trip.ID)
	if stored.Status != domain.TripStatusCompleted {
		t.Errorf("terminal status changed to %s", stored.Status)
	}
}

func TestCancelTrip_NextTripGetsNextSequence(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()

	if _, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, err := f.service.CancelTrip(ctx, "driver-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.TripStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.Qualifying() {
		t.Error("cancelled trip must not qualify")
	}

	next, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Sequence != 2 {
		t.Errorf("expected sequence 2 after cancellation, got %d", next.Sequence)
	}
}

func TestScanTicket_ConcurrentScansStayConsistent(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	ctx := context.Background()

	const scans = 8
	for i := 1; i <= scans; i++ {
		f.salesLedger.AddTicket(fmt.Sprintf("TK-%d", i), today(), 5000)
	}

	trip, err := f.service.StartTrip(ctx, service.StartTripRequest{DriverID: "driver-1", Capacity: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, scans)
	for i := 1; i <= scans; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := f.service.ScanTicket(ctx, "driver-1", fmt.Sprintf("TK-%d", n)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("unexpected scan error: %v", err)
	}

	stored := f.tripRepo.GetTrip(trip.ID)
	if stored.Passengers != scans {
		t.Errorf("expected %d passengers, got %d", scans, stored.Passengers)
	}

	events, err := f.scanLedger.ListByTrip(ctx, trip.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != scans {
		t.Fatalf("expected %d scan events, got %d", scans, len(events))
	}
	for i, event := range events {
		if event.PassengerOrder != i+1 {
			t.Errorf("expected contiguous passenger order %d, got %d", i+1, event.PassengerOrder)
		}
	}
}
