package handler

import (
	"net/http"

	"rfid-asset-tracker/internal/repository"
	"rfid-asset-tracker/internal/service"
	"rfid-asset-tracker/pkg/apierror"
	"rfid-asset-tracker/pkg/response"
)

// QueueHandler exposes drain-queue observability and a manual drain trigger.
type QueueHandler struct {
	repo      repository.TrackingRepository
	scheduler *service.DrainScheduler
	clients   func() int64
}

// NewQueueHandler creates a new queue handler. clients reports the number
// of live WebSocket subscribers (may be nil).
func NewQueueHandler(repo repository.TrackingRepository, scheduler *service.DrainScheduler, clients func() int64) *QueueHandler {
	return &QueueHandler{repo: repo, scheduler: scheduler, clients: clients}
}

// QueueStats is the payload of GET /api/v1/queue/stats.
type QueueStats struct {
	PendingSightings int64                `json:"pending_sightings"`
	DrainPeriodMS    int64                `json:"drain_period_ms"`
	Subscribers      int64                `json:"subscribers"`
	Settings         *QueueSettingsStatus `json:"settings,omitempty"`
}

// QueueSettingsStatus mirrors the live system settings.
type QueueSettingsStatus struct {
	FlagMovingIn  int    `json:"flag_moving_in"`
	FlagMovingOut int    `json:"flag_moving_out"`
	MovingMode    string `json:"moving_mode"`
}

// GetStats handles GET /api/v1/queue/stats
func (h *QueueHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	pending, err := h.repo.CountPending(r.Context())
	if err != nil {
		response.Error(w, apierror.InternalError("failed to count pending sightings"))
		return
	}

	stats := QueueStats{
		PendingSightings: pending,
		DrainPeriodMS:    h.scheduler.Period().Milliseconds(),
	}
	if h.clients != nil {
		stats.Subscribers = h.clients()
	}
	if settings, err := h.repo.GetSettings(r.Context()); err == nil {
		stats.Settings = &QueueSettingsStatus{
			FlagMovingIn:  settings.FlagMovingIn,
			FlagMovingOut: settings.FlagMovingOut,
			MovingMode:    settings.MovingMode,
		}
	}

	response.OK(w, stats)
}

// Drain handles POST /api/v1/queue/drain - runs one drain cycle immediately
// and returns its report.
func (h *QueueHandler) Drain(w http.ResponseWriter, r *http.Request) {
	report, err := h.scheduler.RunNow(r.Context())
	if err != nil {
		response.Error(w, apierror.ServiceUnavailable("drain cycle failed: "+err.Error()))
		return
	}

	response.OK(w, report)
}
