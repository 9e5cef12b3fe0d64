package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// ──────────────────────────────────────────────
// 5. SCHEDULER MANAGER
// ──────────────────────────────────────────────

type schedulerFixture struct {
	registry  *MockAttendanceRegistry
	schedRepo *MockSchedulerRepository
	manager   *service.SchedulerManager
}

func newSchedulerFixture(t *testing.T) *schedulerFixture {
	t.Helper()
	f := &schedulerFixture{
		registry:  NewMockAttendanceRegistry(),
		schedRepo: NewMockSchedulerRepository(),
	}
	closeout := service.NewCloseoutService(f.registry, f.schedRepo)
	f.manager = service.NewSchedulerManager(closeout, f.schedRepo)
	t.Cleanup(f.manager.Stop)
	return f
}

func TestScheduler_ApplySettingsArmsTimer(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t)

	err := f.manager.ApplySettings(context.Background(), domain.SchedulerSettings{
		Enabled:  true,
		Cutoff:   "23:30",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next, ok := f.manager.NextRun()
	if !ok {
		t.Fatal("expected an armed timer")
	}
	if !next.After(time.Now()) {
		t.Errorf("expected next run in the future, got %s", next)
	}
	utc := next.UTC()
	if utc.Hour() != 23 || utc.Minute() != 30 {
		t.Errorf("expected firing at 23:30 UTC, got %02d:%02d", utc.Hour(), utc.Minute())
	}

	settings, err := f.manager.Settings(context.Background())
	if err != nil {
		t.Fatalf("expected settings to be persisted: %v", err)
	}
	if !settings.Enabled || settings.Cutoff != "23:30" {
		t.Errorf("persisted settings differ: %+v", settings)
	}
}

func TestScheduler_ReapplyIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t)
	settings := domain.SchedulerSettings{
		Enabled:  true,
		Cutoff:   "23:30",
		Timezone: "UTC",
	}

	if err := f.manager.ApplySettings(context.Background(), settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, ok := f.manager.NextRun()
	if !ok {
		t.Fatal("expected an armed timer")
	}

	// Saving the same settings again replaces the timer in place.
	if err := f.manager.ApplySettings(context.Background(), settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, ok := f.manager.NextRun()
	if !ok {
		t.Fatal("expected the timer to still be armed")
	}
	if !second.Equal(first) {
		t.Errorf("expected the same next firing, got %s then %s", first, second)
	}
}

func TestScheduler_DisableCancelsPendingTimer(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t)
	ctx := context.Background()

	if err := f.manager.ApplySettings(ctx, domain.SchedulerSettings{
		Enabled:  true,
		Cutoff:   "23:30",
		Timezone: "UTC",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.manager.ApplySettings(ctx, domain.SchedulerSettings{
		Enabled:  false,
		Cutoff:   "23:30",
		Timezone: "UTC",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := f.manager.NextRun(); ok {
		t.Error("expected no armed timer after disabling")
	}
}

func TestScheduler_InvalidSettingsRejected(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t)
	ctx := context.Background()

	testCases := []struct {
		name     string
		cutoff   string
		timezone string
	}{
		{name: "malformed cutoff", cutoff: "25:99", timezone: "UTC"},
		{name: "empty cutoff", cutoff: "", timezone: "UTC"},
		{name: "unknown timezone", cutoff: "23:30", timezone: "Mars/Olympus_Mons"},
	}

	for _, tc := range testCases {
		err := f.manager.ApplySettings(ctx, domain.SchedulerSettings{
			Enabled:  true,
			Cutoff:   tc.cutoff,
			Timezone: tc.timezone,
		})
		if !errors.Is(err, service.ErrInvalidSettings) {
			t.Errorf("%s: expected ErrInvalidSettings, got %v", tc.name, err)
		}
	}

	if _, ok := f.manager.NextRun(); ok {
		t.Error("rejected settings must not arm a timer")
	}
}

func TestScheduler_WeekdayMaskRespected(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t)

	// Allow only the weekday three days out, so today's cutoff is skipped.
	target := time.Now().UTC().AddDate(0, 0, 3).Weekday()
	settings := domain.SchedulerSettings{
		Enabled:  true,
		Cutoff:   "12:00",
		Timezone: "UTC",
	}
	settings.Weekdays[target] = true

	if err := f.manager.ApplySettings(context.Background(), settings); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next, ok := f.manager.NextRun()
	if !ok {
		t.Fatal("expected an armed timer")
	}
	if next.UTC().Weekday() != target {
		t.Errorf("expected firing on %s, got %s", target, next.UTC().Weekday())
	}
}

func TestScheduler_RunNowRecordsManualExecution(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t)
	f.registry.AddWorker(checkedInWorker("worker-1", time.Now().Add(-10*time.Hour)))

	log, err := f.manager.RunNow(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.Type != domain.ExecutionTypeManual {
		t.Errorf("expected MANUAL execution, got %s", log.Type)
	}
	if log.Succeeded != 1 {
		t.Errorf("expected 1 checkout, got %d", log.Succeeded)
	}

	executions, err := f.manager.RecentExecutions(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executions) != 1 {
		t.Fatalf("expected 1 execution entry, got %d", len(executions))
	}
	if executions[0].ID != log.ID {
		t.Errorf("expected the recorded run to be listed, got %+v", executions[0])
	}
}

func TestScheduler_StopDisarmsTimer(t *testing.T) {
	t.Parallel()

	f := newSchedulerFixture(t)

	if err := f.manager.ApplySettings(context.Background(), domain.SchedulerSettings{
		Enabled:  true,
		Cutoff:   "23:30",
		Timezone: "UTC",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.manager.Stop()

	if _, ok := f.manager.NextRun(); ok {
		t.Error("expected no armed timer after Stop")
	}
}
