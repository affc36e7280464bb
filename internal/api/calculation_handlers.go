package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/technosupport/ts-sizer/internal/calc"
	"github.com/technosupport/ts-sizer/internal/data"
	"github.com/technosupport/ts-sizer/internal/metrics"
	"github.com/technosupport/ts-sizer/internal/projects"
	"github.com/technosupport/ts-sizer/internal/report"
)

type CalculationHandler struct {
	Service   *projects.Service
	Collector *metrics.Collector
}

func NewCalculationHandler(svc *projects.Service, collector *metrics.Collector) *CalculationHandler {
	return &CalculationHandler{Service: svc, Collector: collector}
}

// POST /api/v1/calculations
func (h *CalculationHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calc.CalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.CameraGroups) == 0 {
		respondError(w, http.StatusBadRequest, "at least one camera group is required")
		return
	}

	start := time.Now()
	result, err := h.Service.Calculate(r.Context(), req)
	if err != nil {
		h.observe("error", req.TotalDeviceCount(), start)
		var verr *calc.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	outcome := "feasible"
	if !result.Feasible {
		outcome = "infeasible"
	}
	h.observe(outcome, result.TotalDevices, start)

	respondJSON(w, http.StatusOK, result)
}

// POST /api/v1/calculations/multisite
//
// Same pipeline, but always distributes across sites even when the
// deployment fits under the single-site cap.
func (h *CalculationHandler) CalculateMultiSite(w http.ResponseWriter, r *http.Request) {
	var req calc.CalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.CameraGroups) == 0 {
		respondError(w, http.StatusBadRequest, "at least one camera group is required")
		return
	}
	if req.Sites == nil {
		defaults := calc.DefaultSiteConstraints()
		req.Sites = &defaults
	}

	start := time.Now()
	result, err := h.Service.Calculate(r.Context(), req)
	if err != nil {
		h.observe("error", req.TotalDeviceCount(), start)
		var verr *calc.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusBadRequest, verr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	outcome := "feasible"
	if !result.Feasible {
		outcome = "infeasible"
	}
	h.observe(outcome, result.TotalDevices, start)

	respondJSON(w, http.StatusOK, result)
}

// GET /api/v1/calculations
func (h *CalculationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v < 50 {
			limit = v
		}
	}
	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	filter := data.ProjectFilter{}
	if q := r.URL.Query().Get("q"); q != "" {
		filter.Name = q
	}
	if r.URL.Query().Get("feasible") == "true" {
		filter.FeasibleOnly = true
	}

	list, total, err := h.Service.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"data": list,
		"meta": map[string]int{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

// GET /api/v1/calculations/{id}
func (h *CalculationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	p, err := h.Service.Get(r.Context(), id)
	if errors.Is(err, projects.ErrProjectNotFound) {
		respondError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, p)
}

// DELETE /api/v1/calculations/{id}
func (h *CalculationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	err = h.Service.Delete(r.Context(), id)
	if errors.Is(err, projects.ErrProjectNotFound) {
		respondError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// POST /api/v1/calculations/{id}/replay
func (h *CalculationHandler) Replay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	result, err := h.Service.Replay(r.Context(), id)
	if errors.Is(err, projects.ErrProjectNotFound) {
		respondError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		var verr *calc.ValidationError
		if errors.As(err, &verr) {
			respondError(w, http.StatusConflict, "stored request no longer valid: "+verr.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GET /api/v1/calculations/{id}/report
func (h *CalculationHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	p, err := h.Service.Get(r.Context(), id)
	if errors.Is(err, projects.ErrProjectNotFound) {
		respondError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var result calc.CalculationResult
	if err := json.Unmarshal(p.Result, &result); err != nil {
		respondError(w, http.StatusInternalServerError, "stored result unreadable")
		return
	}

	text, err := report.Render(&result)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

func (h *CalculationHandler) observe(outcome string, devices int, start time.Time) {
	if h.Collector != nil {
		h.Collector.ObserveCalculation(outcome, devices, time.Since(start))
	}
}
