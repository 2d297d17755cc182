package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/upcheckhq/upcheck/internal/api/middleware"
	"github.com/upcheckhq/upcheck/internal/domain"
	"github.com/upcheckhq/upcheck/internal/service"
)

// CheckHandler handles check CRUD and lifecycle endpoints.
type CheckHandler struct {
	svc    *service.CheckService
	logger *zap.Logger
}

func NewCheckHandler(svc *service.CheckService, logger *zap.Logger) *CheckHandler {
	return &CheckHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/checks
//
// @Summary     Register a check
// @Tags        checks
// @Accept      json
// @Produce     json
// @Param       body  body      domain.CreateCheckRequest  true  "Check definition"
// @Success     201   {object}  domain.Check
// @Failure     409   {object}  map[string]string
// @Failure     422   {object}  map[string]string
// @Router      /api/v1/checks [post]
func (h *CheckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.logger.Warn("create check failed",
			zap.String("request_id", apimw.GetRequestID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, c)
}

// GetByID handles GET /api/v1/checks/{id}
//
// @Summary  Get a check by ID
// @Tags     checks
// @Produce  json
// @Param    id   path      string  true  "Check UUID"
// @Success  200  {object}  domain.Check
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/checks/{id} [get]
func (h *CheckHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// List handles GET /api/v1/checks
//
// @Summary  List checks with filtering and pagination
// @Tags     checks
// @Produce  json
// @Param    state  query     string  false  "Filter by state"
// @Param    kind   query     string  false  "Filter by kind"
// @Param    tier   query     string  false  "Filter by tier"
// @Param    page   query     int     false  "Page number (default 1)"
// @Param    limit  query     int     false  "Items per page (default 20, max 100)"
// @Success  200    {object}  map[string]any
// @Router   /api/v1/checks [get]
func (h *CheckHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseCheckFilter(r)
	checks, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list checks")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  checks,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// Delete handles DELETE /api/v1/checks/{id}
//
// @Summary  Delete a check and its recorded results
// @Tags     checks
// @Param    id   path      string  true  "Check UUID"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/checks/{id} [delete]
func (h *CheckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pause handles POST /api/v1/checks/{id}/pause
//
// @Summary  Pause probing for a check
// @Tags     checks
// @Param    id   path      string  true  "Check UUID"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Failure  409  {object}  map[string]string
// @Router   /api/v1/checks/{id}/pause [post]
func (h *CheckHandler) Pause(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Pause(r.Context(), id); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Resume handles POST /api/v1/checks/{id}/resume
//
// @Summary  Resume probing for a paused check
// @Tags     checks
// @Param    id   path      string  true  "Check UUID"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Failure  409  {object}  map[string]string
// @Router   /api/v1/checks/{id}/resume [post]
func (h *CheckHandler) Resume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Resume(r.Context(), id); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListResults handles GET /api/v1/checks/{id}/results
//
// @Summary  Recent probe results for a check, newest first
// @Tags     checks
// @Produce  json
// @Param    id     path      string  true   "Check UUID"
// @Param    limit  query     int     false  "Max results (default 100, max 1000)"
// @Success  200    {object}  map[string]any
// @Failure  404    {object}  map[string]string
// @Router   /api/v1/checks/{id}/results [get]
func (h *CheckHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 0
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = l
	}

	results, err := h.svc.ListResults(r.Context(), id, limit)
	if err != nil {
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data":  results,
		"count": len(results),
	})
}

func parseCheckFilter(r *http.Request) domain.CheckFilter {
	q := r.URL.Query()
	filter := domain.CheckFilter{Page: 1, Limit: 20}

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		filter.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= 100 {
		filter.Limit = l
	}
	if s := q.Get("state"); s != "" {
		st := domain.State(s)
		filter.State = &st
	}
	if k := q.Get("kind"); k != "" {
		kind := domain.Kind(k)
		filter.Kind = &kind
	}
	if t := q.Get("tier"); t != "" {
		tier := domain.Tier(t)
		filter.Tier = &tier
	}
	return filter
}
