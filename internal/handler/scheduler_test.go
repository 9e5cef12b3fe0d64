package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fleet/internal/domain"
	"fleet/internal/service"
	"fleet/internal/tests"
)

func TestUpdateSettings_ResponseCarriesLastRunBookkeeping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := tests.NewMockAttendanceRegistry()
	repo := tests.NewMockSchedulerRepository()
	manager := service.NewSchedulerManager(service.NewCloseoutService(registry, repo), repo)
	t.Cleanup(manager.Stop)

	// Settings saved by a previous run carry bookkeeping the request
	// body never contains.
	lastRun := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	if err := repo.SaveSettings(context.Background(), &domain.SchedulerSettings{
		Enabled:      true,
		Cutoff:       "23:30",
		Timezone:     "UTC",
		LastRunAt:    lastRun,
		LastAffected: 4,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h := NewSchedulerHandler(manager)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPut, "/v1/scheduler/settings",
		strings.NewReader(`{"enabled":false,"cutoff":"22:00","timezone":"UTC"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.UpdateSettings(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SettingsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.LastAffected != 4 {
		t.Errorf("expected last_affected 4 carried forward, got %d", resp.LastAffected)
	}
	if resp.LastRunAt == "" {
		t.Error("expected last_run_at carried forward")
	}
	if resp.Cutoff != "22:00" {
		t.Errorf("expected new cutoff 22:00, got %s", resp.Cutoff)
	}
}
