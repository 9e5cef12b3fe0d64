package domain

import "time"

// ExecutionType distinguishes a scheduled closeout run from a manual one.
type ExecutionType string

const (
	ExecutionTypeScheduled ExecutionType = "SCHEDULED"
	ExecutionTypeManual    ExecutionType = "MANUAL"
)

// SchedulerSettings configures the attendance auto-closeout scheduler.
// A settings change takes effect for the next due firing without a
// process restart.
type SchedulerSettings struct {
	Enabled  bool
	Cutoff   string // time of day, "HH:MM"
	Timezone string // IANA identifier
	// Weekdays restricts firing days, indexed by time.Weekday.
	// The zero mask means every day.
	Weekdays     [7]bool
	LastRunAt    time.Time
	LastAffected int
}

// FiresOn reports whether the scheduler fires on the given weekday.
func (s SchedulerSettings) FiresOn(d time.Weekday) bool {
	if s.Weekdays == ([7]bool{}) {
		return true
	}
	return s.Weekdays[d]
}

// WorkerOutcome is the per-worker result of one closeout run.
type WorkerOutcome struct {
	WorkerID     string  `json:"worker_id"`
	ElapsedHours float64 `json:"elapsed_hours,omitempty"`
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
}

// ExecutionLog records one closeout run. Append-only.
type ExecutionLog struct {
	ID           string          `json:"id"`
	ExecutedAt   time.Time       `json:"executed_at"`
	Type         ExecutionType   `json:"type"`
	TotalWorkers int             `json:"total_workers"`
	Succeeded    int             `json:"succeeded"`
	Failed       int             `json:"failed"`
	Outcomes     []WorkerOutcome `json:"outcomes,omitempty"`
	// Error is set only when the run failed before any worker could be
	// processed, e.g. the attendance registry was unavailable.
	Error string `json:"error,omitempty"`
}
