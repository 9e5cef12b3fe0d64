package tests

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.TripSession

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
	QueryError  error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.TripSession),
	}
}

// AddTrip seeds a trip session.
func (m *MockTripRepository) AddTrip(trip *domain.TripSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *trip
	m.trips[trip.ID] = &copy
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.TripSession) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirrors the partial unique index: one IN_PROGRESS session per
	// driver per date, checked and inserted under one lock.
	for _, t := range m.trips {
		if t.DriverID == trip.DriverID && t.TripDate == trip.TripDate && t.Status == domain.TripStatusInProgress {
			return repository.ErrDuplicate
		}
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.TripSession, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetActiveByDriver(ctx context.Context, driverID, date string) (*domain.TripSession, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.DriverID == driverID && t.TripDate == date && t.Status == domain.TripStatusInProgress {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockTripRepository) NextSequence(ctx context.Context, driverID, date string) (int, error) {
	if m.QueryError != nil {
		return 0, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	max := 0
	for _, t := range m.trips {
		if t.DriverID == driverID && t.TripDate == date && t.Sequence > max {
			max = t.Sequence
		}
	}
	return max + 1, nil
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.TripSession) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.trips[trip.ID]
	if !ok || existing.Status != domain.TripStatusInProgress {
		// Terminal sessions are immutable, same as the guarded UPDATE.
		return repository.ErrNotFound
	}
	copy := *trip
	m.trips[trip.ID] = &copy
	return nil
}

func (m *MockTripRepository) ListByDriverDate(ctx context.Context, driverID, date string) ([]*domain.TripSession, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.TripSession
	for _, t := range m.trips {
		if t.DriverID == driverID && t.TripDate == date {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence < result[j].Sequence })
	return result, nil
}

func (m *MockTripRepository) QualifyingCounts(ctx context.Context, start, end string) (map[string]map[string]int, error) {
	if m.QueryError != nil {
		return nil, m.QueryError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]map[string]int)
	for _, t := range m.trips {
		if t.TripDate < start || t.TripDate > end || !t.Qualifying() {
			continue
		}
		if counts[t.DriverID] == nil {
			counts[t.DriverID] = make(map[string]int)
		}
		counts[t.DriverID][t.TripDate]++
	}
	return counts, nil
}

// GetTrip returns the stored session for test assertions.
func (m *MockTripRepository) GetTrip(id string) *domain.TripSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// ──────────────────────────────────────────────
// MOCK SCAN LEDGER
// ──────────────────────────────────────────────

// MockScanLedger is a mock implementation of ScanLedger.
type MockScanLedger struct {
	mu     sync.RWMutex
	events map[string]*domain.ScanEvent // keyed by ticket reference

	RecordCallCount int32

	RecordError error
}

// NewMockScanLedger creates a new mock scan ledger.
func NewMockScanLedger() *MockScanLedger {
	return &MockScanLedger{
		events: make(map[string]*domain.ScanEvent),
	}
}

func (m *MockScanLedger) Record(ctx context.Context, event *domain.ScanEvent) error {
	atomic.AddInt32(&m.RecordCallCount, 1)
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Check-and-insert under one lock, mirroring the unique index.
	if _, ok := m.events[event.TicketRef]; ok {
		return repository.ErrDuplicate
	}
	copy := *event
	m.events[event.TicketRef] = &copy
	return nil
}

func (m *MockScanLedger) Remove(ctx context.Context, ticketRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.events, ticketRef)
	return nil
}

func (m *MockScanLedger) ListByTrip(ctx context.Context, tripID string) ([]*domain.ScanEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.ScanEvent
	for _, e := range m.events {
		if e.TripID == tripID {
			copy := *e
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PassengerOrder < result[j].PassengerOrder })
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK SALES LEDGER
// ──────────────────────────────────────────────

type soldTicket struct {
	amount   int64
	saleDate string
}

// MockSalesLedger is a mock implementation of SalesLedger.
type MockSalesLedger struct {
	mu      sync.RWMutex
	tickets map[string]soldTicket

	SumRevenueError error
}

// NewMockSalesLedger creates a new mock sales ledger.
func NewMockSalesLedger() *MockSalesLedger {
	return &MockSalesLedger{
		tickets: make(map[string]soldTicket),
	}
}

// AddTicket seeds a sold ticket.
func (m *MockSalesLedger) AddTicket(ticketRef, saleDate string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticketRef] = soldTicket{amount: amount, saleDate: saleDate}
}

func (m *MockSalesLedger) SumRevenue(ctx context.Context, start, end string) (repository.RevenueTotals, error) {
	if m.SumRevenueError != nil {
		return repository.RevenueTotals{}, m.SumRevenueError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var totals repository.RevenueTotals
	for _, t := range m.tickets {
		if t.saleDate >= start && t.saleDate <= end {
			totals.TotalRevenue += t.amount
			totals.TotalTickets++
		}
	}
	return totals, nil
}

func (m *MockSalesLedger) TicketExists(ctx context.Context, ticketRef string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tickets[ticketRef]
	return ok, nil
}

// ──────────────────────────────────────────────
// MOCK ATTENDANCE REGISTRY
// ──────────────────────────────────────────────

// MockAttendanceRegistry is a mock implementation of AttendanceRegistry.
type MockAttendanceRegistry struct {
	mu      sync.RWMutex
	workers map[string]*domain.Worker

	ForceCheckoutCallCount int32

	// Error injection
	ListError           error
	ForceCheckoutErrors map[string]error // per worker ID
}

// NewMockAttendanceRegistry creates a new mock attendance registry.
func NewMockAttendanceRegistry() *MockAttendanceRegistry {
	return &MockAttendanceRegistry{
		workers:             make(map[string]*domain.Worker),
		ForceCheckoutErrors: make(map[string]error),
	}
}

// AddWorker seeds a worker.
func (m *MockAttendanceRegistry) AddWorker(worker *domain.Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *worker
	m.workers[worker.ID] = &copy
}

func (m *MockAttendanceRegistry) ListCheckedIn(ctx context.Context) ([]*domain.Worker, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Worker
	for _, w := range m.workers {
		if w.Attendance == domain.AttendanceCheckedIn {
			copy := *w
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockAttendanceRegistry) ForceCheckout(ctx context.Context, workerID string, at time.Time) (float64, error) {
	atomic.AddInt32(&m.ForceCheckoutCallCount, 1)
	if err := m.ForceCheckoutErrors[workerID]; err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	worker, ok := m.workers[workerID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if worker.Attendance == domain.AttendanceCheckedOut {
		return 0, nil
	}
	worker.Attendance = domain.AttendanceCheckedOut
	worker.LastCheckOutAt = at
	return at.Sub(worker.LastCheckInAt).Hours(), nil
}

// GetWorker returns the stored worker for test assertions.
func (m *MockAttendanceRegistry) GetWorker(id string) *domain.Worker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.workers[id]
}

// ──────────────────────────────────────────────
// MOCK SCHEDULER REPOSITORY
// ──────────────────────────────────────────────

// MockSchedulerRepository is a mock implementation of SchedulerRepository.
type MockSchedulerRepository struct {
	mu         sync.RWMutex
	settings   *domain.SchedulerSettings
	executions []*domain.ExecutionLog

	SaveSettingsCallCount    int32
	AppendExecutionCallCount int32

	SaveSettingsError    error
	AppendExecutionError error
}

// NewMockSchedulerRepository creates a new mock scheduler repository.
func NewMockSchedulerRepository() *MockSchedulerRepository {
	return &MockSchedulerRepository{}
}

func (m *MockSchedulerRepository) GetSettings(ctx context.Context) (*domain.SchedulerSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return nil, repository.ErrNotFound
	}
	copy := *m.settings
	return &copy, nil
}

func (m *MockSchedulerRepository) SaveSettings(ctx context.Context, settings *domain.SchedulerSettings) error {
	atomic.AddInt32(&m.SaveSettingsCallCount, 1)
	if m.SaveSettingsError != nil {
		return m.SaveSettingsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *settings
	m.settings = &copy
	return nil
}

func (m *MockSchedulerRepository) AppendExecution(ctx context.Context, log *domain.ExecutionLog) error {
	atomic.AddInt32(&m.AppendExecutionCallCount, 1)
	if m.AppendExecutionError != nil {
		return m.AppendExecutionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *log
	m.executions = append([]*domain.ExecutionLog{&copy}, m.executions...)
	return nil
}

func (m *MockSchedulerRepository) RecentExecutions(ctx context.Context, limit int) ([]*domain.ExecutionLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit > len(m.executions) {
		limit = len(m.executions)
	}
	result := make([]*domain.ExecutionLog, 0, limit)
	for _, e := range m.executions[:limit] {
		copy := *e
		result = append(result, &copy)
	}
	return result, nil
}

// Executions returns all recorded logs, newest first, for assertions.
func (m *MockSchedulerRepository) Executions() []*domain.ExecutionLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.ExecutionLog{}, m.executions...)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface with real
// mutual exclusion semantics.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireTripLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[driverID] {
		return false, nil
	}
	m.locks[driverID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseTripLock(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, driverID)
	return nil
}

// ──────────────────────────────────────────────
// MOCK SNAPSHOT CACHE
// ──────────────────────────────────────────────

// MockSnapshotCache is a mock implementation of SnapshotCacheInterface.
type MockSnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.RevenueSnapshot

	GetCallCount int32
	SetCallCount int32
}

// NewMockSnapshotCache creates a new mock snapshot cache.
func NewMockSnapshotCache() *MockSnapshotCache {
	return &MockSnapshotCache{
		snapshots: make(map[string]*domain.RevenueSnapshot),
	}
}

func (m *MockSnapshotCache) GetSnapshot(ctx context.Context, start, end string) (*domain.RevenueSnapshot, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	snapshot, ok := m.snapshots[start+":"+end]
	if !ok {
		return nil, nil
	}
	copy := *snapshot
	return &copy, nil
}

func (m *MockSnapshotCache) SetSnapshot(ctx context.Context, snapshot *domain.RevenueSnapshot) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *snapshot
	m.snapshots[snapshot.StartDate+":"+snapshot.EndDate] = &copy
	return nil
}
