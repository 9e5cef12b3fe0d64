package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

// CloseoutService force-checks-out every worker still flagged checked-in.
// Each worker is an independent unit of work: one failure is recorded
// and the batch continues. Forced checkout is idempotent, so a crash
// mid-batch needs no rollback.
type CloseoutService struct {
	registry  repository.AttendanceRegistry
	schedRepo repository.SchedulerRepository

	now func() time.Time
}

// NewCloseoutService creates a new CloseoutService.
func NewCloseoutService(registry repository.AttendanceRegistry, schedRepo repository.SchedulerRepository) *CloseoutService {
	return &CloseoutService{
		registry:  registry,
		schedRepo: schedRepo,
		now:       time.Now,
	}
}

// Run executes one closeout pass and persists its execution log.
//
// A registry failure before the worker list is obtained produces a log
// with a single top-level error and zero processed workers, and the
// error propagates; there is no retry — the next firing is independent.
func (s *CloseoutService) Run(ctx context.Context, execType domain.ExecutionType) (*domain.ExecutionLog, error) {
	now := s.now()
	log := &domain.ExecutionLog{
		ID:         uuid.New().String(),
		ExecutedAt: now,
		Type:       execType,
	}

	workers, err := s.registry.ListCheckedIn(ctx)
	if err != nil {
		log.Error = err.Error()
		_ = s.schedRepo.AppendExecution(ctx, log)
		return log, err
	}

	log.TotalWorkers = len(workers)
	for _, worker := range workers {
		elapsed, err := s.registry.ForceCheckout(ctx, worker.ID, now)
		if err != nil {
			log.Failed++
			log.Outcomes = append(log.Outcomes, domain.WorkerOutcome{
				WorkerID: worker.ID,
				Success:  false,
				Error:    err.Error(),
			})
			continue
		}
		log.Succeeded++
		log.Outcomes = append(log.Outcomes, domain.WorkerOutcome{
			WorkerID:     worker.ID,
			ElapsedHours: elapsed,
			Success:      true,
		})
	}

	if err := s.schedRepo.AppendExecution(ctx, log); err != nil {
		return log, err
	}

	s.recordLastRun(ctx, now, log.Succeeded)

	return log, nil
}

// recordLastRun updates the settings bookkeeping. Best effort: losing it
// does not invalidate the run itself.
func (s *CloseoutService) recordLastRun(ctx context.Context, at time.Time, affected int) {
	settings, err := s.schedRepo.GetSettings(ctx)
	if err != nil {
		return
	}
	settings.LastRunAt = at
	settings.LastAffected = affected
	_ = s.schedRepo.SaveSettings(ctx, settings)
}
