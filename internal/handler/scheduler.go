package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
)

// SchedulerHandler handles HTTP requests for the auto-closeout scheduler.
type SchedulerHandler struct {
	manager *service.SchedulerManager
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(manager *service.SchedulerManager) *SchedulerHandler {
	return &SchedulerHandler{manager: manager}
}

// SettingsRequest is the request body for updating scheduler settings.
type SettingsRequest struct {
	Enabled  bool   `json:"enabled"`
	Cutoff   string `json:"cutoff" binding:"required"`
	Timezone string `json:"timezone" binding:"required"`
	Weekdays []int  `json:"weekdays"`
}

// SettingsResponse is the HTTP representation of scheduler settings.
type SettingsResponse struct {
	Enabled      bool   `json:"enabled"`
	Cutoff       string `json:"cutoff"`
	Timezone     string `json:"timezone"`
	Weekdays     []int  `json:"weekdays"`
	NextRunAt    string `json:"next_run_at,omitempty"`
	LastRunAt    string `json:"last_run_at,omitempty"`
	LastAffected int    `json:"last_affected"`
}

func (h *SchedulerHandler) toSettingsResponse(s *domain.SchedulerSettings) SettingsResponse {
	resp := SettingsResponse{
		Enabled:      s.Enabled,
		Cutoff:       s.Cutoff,
		Timezone:     s.Timezone,
		LastAffected: s.LastAffected,
	}
	for d := 0; d < 7; d++ {
		if s.Weekdays[d] {
			resp.Weekdays = append(resp.Weekdays, d)
		}
	}
	if !s.LastRunAt.IsZero() {
		resp.LastRunAt = s.LastRunAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if next, ok := h.manager.NextRun(); ok {
		resp.NextRunAt = next.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// GetSettings handles GET /v1/scheduler/settings
func (h *SchedulerHandler) GetSettings(c *gin.Context) {
	settings, err := h.manager.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.toSettingsResponse(settings))
}

// UpdateSettings handles PUT /v1/scheduler/settings
func (h *SchedulerHandler) UpdateSettings(c *gin.Context) {
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.ErrInvalidSettings)
		return
	}

	settings := domain.SchedulerSettings{
		Enabled:  req.Enabled,
		Cutoff:   req.Cutoff,
		Timezone: req.Timezone,
	}
	for _, d := range req.Weekdays {
		if d < 0 || d > 6 {
			respondError(c, service.ErrInvalidSettings)
			return
		}
		settings.Weekdays[d] = true
	}

	if err := h.manager.ApplySettings(c.Request.Context(), settings); err != nil {
		respondError(c, err)
		return
	}

	// Re-read the persisted settings: ApplySettings carries the
	// last-run bookkeeping forward, which the request body lacks.
	saved, err := h.manager.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, h.toSettingsResponse(saved))
}

// RunNow handles POST /v1/scheduler/run
func (h *SchedulerHandler) RunNow(c *gin.Context) {
	log, err := h.manager.RunNow(c.Request.Context())
	if err != nil {
		// The log still carries the partial outcome.
		if log != nil {
			respondJSON(c, http.StatusInternalServerError, log)
			return
		}
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, log)
}

// Executions handles GET /v1/scheduler/executions?limit=N
func (h *SchedulerHandler) Executions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, service.ErrInvalidSettings)
			return
		}
		limit = parsed
	}

	logs, err := h.manager.RecentExecutions(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, logs)
}
