package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	dompayroll "github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	"github.com/salarysys/payroll-backend-go/internal/handler/http/response"
	payrollsvc "github.com/salarysys/payroll-backend-go/internal/service/payroll"
)

type PayrollHandler struct {
	payrolls *payrollsvc.PayrollService
}

func NewPayrollHandler(payrolls *payrollsvc.PayrollService) *PayrollHandler {
	return &PayrollHandler{payrolls: payrolls}
}

func (h *PayrollHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dompayroll.CreatePayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Create payroll decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.payrolls.Create(r.Context(), req)
	if err != nil {
		slog.Error("Failed to create payroll", "error", err, "employee_id", req.EmployeeID)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll created successfully", created)
}

func (h *PayrollHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.payrolls.GetByID(r.Context(), chi.URLParam(r, "payrollID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, p)
}

func (h *PayrollHandler) ListByPeriod(w http.ResponseWriter, r *http.Request) {
	list, err := h.payrolls.ListByPeriod(r.Context(), chi.URLParam(r, "periodID"), employeeIDsQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, list)
}

func (h *PayrollHandler) GetPeriodSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.payrolls.GetPeriodSummary(r.Context(), chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, summary)
}

func (h *PayrollHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dompayroll.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Add payroll item decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.PayrollID = chi.URLParam(r, "payrollID")

	updated, err := h.payrolls.AddItem(r.Context(), req)
	if err != nil {
		slog.Error("Failed to add payroll item", "error", err, "payroll_id", req.PayrollID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll item added successfully", updated)
}

func (h *PayrollHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dompayroll.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Update payroll status decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.PayrollID = chi.URLParam(r, "payrollID")

	updated, err := h.payrolls.UpdateStatus(r.Context(), req)
	if err != nil {
		slog.Error("Failed to update payroll status", "error", err, "payroll_id", req.PayrollID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll status updated successfully", updated)
}

func (h *PayrollHandler) ListComponents(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"
	components, err := h.payrolls.ListComponents(r.Context(), activeOnly)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, components)
}
