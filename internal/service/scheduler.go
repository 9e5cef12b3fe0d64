package service

import (
	"context"
	"log"
	"sync"
	"time"

	"fleet/internal/domain"
	"fleet/internal/repository"
)

const cutoffLayout = "15:04"

// SchedulerManager owns the attendance auto-closeout timer. It holds at
// most one armed timer at a time and replaces it wholesale on every
// settings change, so repeated saves never leak timers and a change
// takes effect for the next due firing without a restart.
type SchedulerManager struct {
	closeout *CloseoutService
	repo     repository.SchedulerRepository

	mu    sync.Mutex
	timer *time.Timer
	// gen identifies the current timer chain. ApplySettings and Stop
	// bump it; a firing armed under an older generation neither runs
	// nor re-arms.
	gen      uint64
	settings domain.SchedulerSettings
	nextFire time.Time

	now func() time.Time
}

// NewSchedulerManager creates a new SchedulerManager.
func NewSchedulerManager(closeout *CloseoutService, repo repository.SchedulerRepository) *SchedulerManager {
	return &SchedulerManager{
		closeout: closeout,
		repo:     repo,
		now:      time.Now,
	}
}

// ApplySettings validates and persists the settings, then re-arms the
// timer: any pending timer is cancelled first, and a new one is armed
// only when the scheduler is enabled. Idempotent and safe to call on
// every settings save.
func (m *SchedulerManager) ApplySettings(ctx context.Context, settings domain.SchedulerSettings) error {
	loc, err := validateSettings(settings)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Carry bookkeeping forward; callers only submit the schedule fields.
	settings.LastRunAt = m.settings.LastRunAt
	settings.LastAffected = m.settings.LastAffected
	if prev, err := m.repo.GetSettings(ctx); err == nil {
		settings.LastRunAt = prev.LastRunAt
		settings.LastAffected = prev.LastAffected
	}

	if err := m.repo.SaveSettings(ctx, &settings); err != nil {
		return err
	}

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
	m.settings = settings
	m.nextFire = time.Time{}

	if settings.Enabled {
		next := nextFireTime(m.now().In(loc), settings)
		m.nextFire = next
		m.arm(next)
	}

	return nil
}

// arm schedules the next firing for the current generation. Caller
// holds mu.
func (m *SchedulerManager) arm(next time.Time) {
	gen := m.gen
	m.timer = time.AfterFunc(next.Sub(m.now()), func() { m.fire(gen) })
}

// fire runs one scheduled closeout and re-arms for the next occurrence.
// A firing whose generation is no longer current belongs to a replaced
// or stopped chain and bows out, so a settings save landing while a run
// is in flight never leaves two chains alive.
func (m *SchedulerManager) fire(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if _, err := m.closeout.Run(context.Background(), domain.ExecutionTypeScheduled); err != nil {
		log.Printf("scheduled closeout failed: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || !m.settings.Enabled {
		return
	}
	loc, err := validateSettings(m.settings)
	if err != nil {
		return
	}
	next := nextFireTime(m.now().In(loc), m.settings)
	m.nextFire = next
	m.arm(next)
}

// RunNow triggers an on-demand closeout, tagged as a manual execution.
func (m *SchedulerManager) RunNow(ctx context.Context) (*domain.ExecutionLog, error) {
	return m.closeout.Run(ctx, domain.ExecutionTypeManual)
}

// Settings returns the persisted scheduler settings.
func (m *SchedulerManager) Settings(ctx context.Context) (*domain.SchedulerSettings, error) {
	return m.repo.GetSettings(ctx)
}

// RecentExecutions returns the most recent execution logs, newest first.
func (m *SchedulerManager) RecentExecutions(ctx context.Context, limit int) ([]*domain.ExecutionLog, error) {
	if limit <= 0 {
		limit = 20
	}
	return m.repo.RecentExecutions(ctx, limit)
}

// NextRun reports the next scheduled firing time. ok is false when the
// scheduler is disabled.
func (m *SchedulerManager) NextRun() (next time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextFire, m.timer != nil
}

// Stop cancels any pending timer. Used on shutdown; an in-flight run is
// not interrupted.
func (m *SchedulerManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.nextFire = time.Time{}
}

// validateSettings checks the cutoff, timezone, and weekday mask.
func validateSettings(s domain.SchedulerSettings) (*time.Location, error) {
	if _, err := time.Parse(cutoffLayout, s.Cutoff); err != nil {
		return nil, ErrInvalidSettings
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, ErrInvalidSettings
	}
	return loc, nil
}

// nextFireTime returns the first instant strictly after now that falls
// on an allowed weekday at the cutoff time of day.
func nextFireTime(now time.Time, s domain.SchedulerSettings) time.Time {
	cutoff, _ := time.Parse(cutoffLayout, s.Cutoff)

	candidate := time.Date(now.Year(), now.Month(), now.Day(),
		cutoff.Hour(), cutoff.Minute(), 0, 0, now.Location())

	for i := 0; i < 8; i++ {
		if candidate.After(now) && s.FiresOn(candidate.Weekday()) {
			return candidate
		}
		candidate = candidate.AddDate(0, 0, 1)
	}

	return candidate
}
