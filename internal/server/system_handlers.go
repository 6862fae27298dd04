package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Pinger is implemented by warehouses that can be health checked cheaply.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandlers serves process and host status.
type SystemHandlers struct {
	backend   string
	warehouse Pinger
	monitor   *ResourceMonitor
	startedAt time.Time
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers. warehouse and monitor may be nil.
func NewSystemHandlers(backend string, warehouse Pinger, monitor *ResourceMonitor, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		backend:   backend,
		warehouse: warehouse,
		monitor:   monitor,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string          `json:"status"`
	Backend       string          `json:"backend"`
	Warehouse     string          `json:"warehouse"`
	StartedAt     string          `json:"started_at"`
	Uptime        string          `json:"uptime"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Goroutines    int             `json:"goroutines"`
	HeapAlloc     string          `json:"heap_alloc"`
	Resources     *ResourceSample `json:"resources,omitempty"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := SystemStatusResponse{
		Status:        "ok",
		Backend:       h.backend,
		Warehouse:     "unchecked",
		StartedAt:     h.startedAt.Format(time.RFC3339),
		Uptime:        strings.TrimSpace(humanize.RelTime(h.startedAt, time.Now(), "", "")),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
		HeapAlloc:     humanize.Bytes(memStats.HeapAlloc),
	}

	if h.warehouse != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.warehouse.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Msg("Warehouse health check failed")
			resp.Status = "degraded"
			resp.Warehouse = "unreachable"
		} else {
			resp.Warehouse = "ok"
		}
	}

	if h.monitor != nil {
		if sample, ok := h.monitor.Latest(); ok {
			resp.Resources = &sample
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
