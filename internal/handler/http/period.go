package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	domperiod "github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/handler/http/response"
	periodsvc "github.com/salarysys/payroll-backend-go/internal/service/period"
)

type PeriodHandler struct {
	periods *periodsvc.PeriodService
}

func NewPeriodHandler(periods *periodsvc.PeriodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

func (h *PeriodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domperiod.CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Create period decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.periods.Create(r.Context(), req)
	if err != nil {
		slog.Error("Failed to create period", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll period created successfully", created)
}

func (h *PeriodHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.periods.List(r.Context())
	if err != nil {
		slog.Error("Failed to list periods", "error", err)
		response.HandleError(w, err)
		return
	}
	response.Success(w, list)
}

func (h *PeriodHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.periods.GetByID(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, p)
}

func (h *PeriodHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req domperiod.UpdatePeriodStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Update period status decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.ID = chi.URLParam(r, "periodID")

	updated, err := h.periods.UpdateStatus(r.Context(), req)
	if err != nil {
		slog.Error("Failed to update period status", "error", err, "period_id", req.ID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Period status updated successfully", updated)
}
