package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/contexo/internal/interfaces"
	"github.com/ternarybob/contexo/internal/services/scheduler"
)

// StatusHandler reports runtime state: scheduler health and the supervisor
// job's last sweep.
type StatusHandler struct {
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewStatusHandler creates the status handler
func NewStatusHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		scheduler: schedulerService,
		logger:    logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := map[string]interface{}{
		"scheduler_running": h.scheduler.IsRunning(),
	}

	if job, err := h.scheduler.GetJobStatus(scheduler.SupervisorJobName); err == nil {
		supervisor := map[string]interface{}{
			"schedule":   job.Schedule,
			"is_running": job.IsRunning,
		}
		if job.LastRun != nil {
			supervisor["last_run"] = job.LastRun
		}
		if job.NextRun != nil {
			supervisor["next_run"] = job.NextRun
		}
		if job.LastError != "" {
			supervisor["last_error"] = job.LastError
		}
		status["supervisor"] = supervisor
	}

	WriteJSON(w, http.StatusOK, status)
}
