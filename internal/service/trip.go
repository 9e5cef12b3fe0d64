package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/redis"
	"fleet/internal/repository"
)

const (
	tripLockTTL      = 10 * time.Second
	tripLockWait     = 2 * time.Second
	tripLockRetryGap = 25 * time.Millisecond
	tripDateLayout   = "2006-01-02"
)

// TripService owns the per-driver trip state machine: starting trips,
// crediting scanned tickets, and closing or cancelling the active trip.
type TripService struct {
	tripRepo    repository.TripRepository
	scanLedger  repository.ScanLedger
	salesLedger repository.SalesLedger
	lockStore   redis.LockStoreInterface
	loc         *time.Location

	now func() time.Time
}

// NewTripService creates a new TripService. loc fixes the fleet's local
// calendar day; nil falls back to the process-local timezone.
func NewTripService(
	tripRepo repository.TripRepository,
	scanLedger repository.ScanLedger,
	salesLedger repository.SalesLedger,
	lockStore redis.LockStoreInterface,
	loc *time.Location,
) *TripService {
	if loc == nil {
		loc = time.Local
	}
	return &TripService{
		tripRepo:    tripRepo,
		scanLedger:  scanLedger,
		salesLedger: salesLedger,
		lockStore:   lockStore,
		loc:         loc,
		now:         time.Now,
	}
}

// StartTripRequest contains the parameters for starting a trip.
type StartTripRequest struct {
	DriverID string
	Capacity int
}

// StartTrip opens a new trip session for the driver's current day.
func (s *TripService) StartTrip(ctx context.Context, req StartTripRequest) (*domain.TripSession, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if req.Capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	var trip *domain.TripSession
	err := s.withTripLock(ctx, req.DriverID, func() error {
		now := s.now().In(s.loc)
		date := now.Format(tripDateLayout)

		existing, err := s.tripRepo.GetActiveByDriver(ctx, req.DriverID, date)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrTripAlreadyActive
		}

		seq, err := s.tripRepo.NextSequence(ctx, req.DriverID, date)
		if err != nil {
			return err
		}

		trip = &domain.TripSession{
			ID:         uuid.New().String(),
			DriverID:   req.DriverID,
			TripDate:   date,
			Sequence:   seq,
			Capacity:   req.Capacity,
			Required:   domain.RequiredPassengers(req.Capacity),
			Passengers: 0,
			Status:     domain.TripStatusInProgress,
			StartedAt:  now,
		}

		if err := s.tripRepo.Create(ctx, trip); err != nil {
			// The storage-level unique index caught a racing start.
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrTripAlreadyActive
			}
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// ScanResult contains the outcome of crediting one ticket.
type ScanResult struct {
	Trip           *domain.TripSession
	PassengerOrder int
	// TripCompleted is true only on the scan that crossed the threshold.
	TripCompleted bool
}

// ScanTicket credits a ticket to the driver's active trip. When the scan
// reaches the required occupancy the trip transitions to COMPLETED in
// the same step, so exactly one scan reports TripCompleted.
func (s *TripService) ScanTicket(ctx context.Context, driverID, ticketRef string) (*ScanResult, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}
	if ticketRef == "" {
		return nil, ErrInvalidTicketRef
	}

	var result *ScanResult
	err := s.withTripLock(ctx, driverID, func() error {
		now := s.now().In(s.loc)
		date := now.Format(tripDateLayout)

		trip, err := s.tripRepo.GetActiveByDriver(ctx, driverID, date)
		if err != nil {
			return err
		}
		if trip == nil {
			return ErrNoActiveTrip
		}

		known, err := s.salesLedger.TicketExists(ctx, ticketRef)
		if err != nil {
			return err
		}
		if !known {
			return ErrTicketNotFound
		}

		order := trip.Passengers + 1
		event := &domain.ScanEvent{
			ID:             uuid.New().String(),
			TicketRef:      ticketRef,
			TripID:         trip.ID,
			PassengerOrder: order,
			ScannedAt:      now,
		}
		if err := s.scanLedger.Record(ctx, event); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrDuplicateScan
			}
			return err
		}

		trip.Passengers = order
		completed := trip.Passengers >= trip.Required
		if completed {
			trip.Status = domain.TripStatusCompleted
			trip.CompletedAt = now
		}

		if err := s.tripRepo.Update(ctx, trip); err != nil {
			// Roll the credit back so a retry can scan the ticket
			// again. The driver lock is still held, so no other scan
			// slips in between.
			_ = s.scanLedger.Remove(ctx, ticketRef)
			return err
		}

		result = &ScanResult{
			Trip:           trip,
			PassengerOrder: order,
			TripCompleted:  completed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CompleteTrip closes the driver's active trip regardless of occupancy.
// A trip closed below the required threshold stays COMPLETED but does
// not count toward qualification.
func (s *TripService) CompleteTrip(ctx context.Context, driverID string) (*domain.TripSession, error) {
	return s.finishTrip(ctx, driverID, domain.TripStatusCompleted)
}

// CancelTrip cancels the driver's active trip. No further scans are
// accepted and the trip never counts toward qualification.
func (s *TripService) CancelTrip(ctx context.Context, driverID string) (*domain.TripSession, error) {
	return s.finishTrip(ctx, driverID, domain.TripStatusCancelled)
}

func (s *TripService) finishTrip(ctx context.Context, driverID string, status domain.TripStatus) (*domain.TripSession, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	var trip *domain.TripSession
	err := s.withTripLock(ctx, driverID, func() error {
		now := s.now().In(s.loc)
		date := now.Format(tripDateLayout)

		active, err := s.tripRepo.GetActiveByDriver(ctx, driverID, date)
		if err != nil {
			return err
		}
		if active == nil {
			return ErrNoActiveTrip
		}

		active.Status = status
		active.CompletedAt = now

		if err := s.tripRepo.Update(ctx, active); err != nil {
			return err
		}

		trip = active
		return nil
	})
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// ActiveTrip retrieves the driver's current trip, nil if none.
func (s *TripService) ActiveTrip(ctx context.Context, driverID string) (*domain.TripSession, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	date := s.now().In(s.loc).Format(tripDateLayout)
	return s.tripRepo.GetActiveByDriver(ctx, driverID, date)
}

// withTripLock runs fn under the driver's distributed trip lock. The
// lock serializes every mutating operation per driver, which makes the
// read-check-update inside fn an atomic unit.
func (s *TripService) withTripLock(ctx context.Context, driverID string, fn func() error) error {
	deadline := s.now().Add(tripLockWait)
	for {
		locked, err := s.lockStore.AcquireTripLock(ctx, driverID, tripLockTTL)
		if err != nil {
			return err
		}
		if locked {
			break
		}
		if s.now().After(deadline) {
			return ErrDriverBusy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tripLockRetryGap):
		}
	}
	defer func() {
		_ = s.lockStore.ReleaseTripLock(ctx, driverID)
	}()

	return fn()
}
