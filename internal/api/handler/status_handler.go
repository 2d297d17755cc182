package handler

import (
	"net/http"

	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/queue"
	"github.com/upcheckhq/upcheck/internal/service"
)

// StatusHandler serves a human-readable JSON fleet snapshot.
// Raw Prometheus metrics (counters, histograms) are available at /metrics
// via promhttp.Handler and are separate from this endpoint.
type StatusHandler struct {
	svc *service.CheckService
	q   *queue.ProbeQueue
}

func NewStatusHandler(svc *service.CheckService, q *queue.ProbeQueue) *StatusHandler {
	return &StatusHandler{svc: svc, q: q}
}

// GetStatus handles GET /api/v1/status
//
// @Summary  Fleet state counts and queue depth snapshot
// @Tags     status
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/status [get]
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Overview(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to build status overview")
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	critical, standard, background := h.q.Depths()
	respondJSON(w, http.StatusOK, map[string]any{
		"checks": map[string]int{
			"unknown": counts[domain.StateUnknown],
			"passing": counts[domain.StatePassing],
			"failing": counts[domain.StateFailing],
			"paused":  counts[domain.StatePaused],
			"total":   total,
		},
		"queue_depth": map[string]int{
			"critical":   critical,
			"standard":   standard,
			"background": background,
			"total":      critical + standard + background,
		},
	})
}
