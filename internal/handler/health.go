package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"rfid-asset-tracker/internal/repository"
	"rfid-asset-tracker/pkg/response"
)

// StartTime tracks when the service started for uptime calculation
var StartTime = time.Now()

// Handler contains the shared health/status handlers and their dependencies.
type Handler struct {
	repo    repository.TrackingRepository
	version string
}

// New creates a new handler.
func New(repo repository.TrackingRepository, version string) *Handler {
	return &Handler{repo: repo, version: version}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}
	response.OK(w, resp)
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks"`
}

// Check represents an individual readiness check.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Ready handles GET /api/v1/ready
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := []Check{
		{Name: "database", Status: h.checkDatabase(r.Context())},
	}

	allReady := true
	for _, check := range checks {
		if check.Status != "ok" {
			allReady = false
			break
		}
	}

	resp := ReadyResponse{
		Ready:     allReady,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}

	if !allReady {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response.OK(w, resp)
}

// StatusChecks represents the checks in status response
type StatusChecks struct {
	Database string  `json:"database"`
	MemoryMB float64 `json:"memory_mb"`
}

// StatusResponse represents the unified status response for monitoring
type StatusResponse struct {
	Service       string       `json:"service"`
	Status        string       `json:"status"`
	Timestamp     string       `json:"timestamp"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Checks        StatusChecks `json:"checks"`
}

// Status handles GET /api/status - unified health check for monitoring
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryMB := float64(memStats.Alloc) / 1024 / 1024

	resp := StatusResponse{
		Service:       "rfid-asset-tracker",
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(StartTime).Seconds()),
		Checks: StatusChecks{
			Database: h.checkDatabase(r.Context()),
			MemoryMB: float64(int(memoryMB*100)) / 100,
		},
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	response.OK(w, resp)
}

func (h *Handler) checkDatabase(ctx context.Context) string {
	if h.repo == nil {
		return "unavailable"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := h.repo.CountPending(ctx); err != nil {
		return "error"
	}
	return "ok"
}
