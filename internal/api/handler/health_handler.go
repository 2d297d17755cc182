package handler

import (
	"context"
	"net/http"
)

// Pinger is the single connectivity probe the health endpoint performs.
// *pgxpool.Pool satisfies it directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the health endpoint's response body.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

const (
	dbUp   = "up"
	dbDown = "down"
)

// HealthHandler serves the liveness probe endpoint.
type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
//
// The endpoint always answers 200 with status "ok": it reports that the
// process is up and serving, not that every dependency is healthy.
// Database connectivity is carried in the "database" field so load
// balancers keep routing while operators and monitors still see a
// degraded dependency.
//
// @Summary  Liveness probe with database connectivity
// @Tags     system
// @Produce  json
// @Success  200  {object}  HealthStatus
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{Status: "ok", Database: dbUp}
	if err := h.db.Ping(r.Context()); err != nil {
		status.Database = dbDown
	}
	respondJSON(w, http.StatusOK, status)
}
