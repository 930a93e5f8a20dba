package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	dominsurance "github.com/salarysys/payroll-backend-go/internal/domain/insurance"
	"github.com/salarysys/payroll-backend-go/internal/handler/http/response"
	insurancesvc "github.com/salarysys/payroll-backend-go/internal/service/insurance"
	"github.com/shopspring/decimal"
)

type InsuranceHandler struct {
	resolver *insurancesvc.ResolverService
}

func NewInsuranceHandler(resolver *insurancesvc.ResolverService) *InsuranceHandler {
	return &InsuranceHandler{resolver: resolver}
}

func (h *InsuranceHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.resolver.ListTypes(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]dominsurance.InsuranceTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, dominsurance.InsuranceTypeResponse{
			ID: t.ID, Key: t.Key, Name: t.Name, IsActive: t.IsActive,
		})
	}
	response.Success(w, out)
}

type resolveRequest struct {
	EmployeeID      string           `json:"employee_id"`
	InsuranceTypeID string           `json:"insurance_type_id"`
	Candidate       *decimal.Decimal `json:"candidate,omitempty"`
}

func (h *InsuranceHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Resolve base decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	res, err := h.resolver.Resolve(r.Context(), req.EmployeeID, req.InsuranceTypeID, chi.URLParam(r, "periodID"), req.Candidate)
	if err != nil {
		slog.Error("Failed to resolve contribution base", "error", err, "employee_id", req.EmployeeID)
		response.HandleError(w, err)
		return
	}

	response.Success(w, res)
}

type batchResolveRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
}

func (h *InsuranceHandler) BatchResolve(w http.ResponseWriter, r *http.Request) {
	var req batchResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Batch resolve decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if len(req.EmployeeIDs) == 0 {
		response.BadRequest(w, "employee_ids is required", nil)
		return
	}

	out, err := h.resolver.BatchResolve(r.Context(), req.EmployeeIDs, chi.URLParam(r, "periodID"))
	if err != nil {
		slog.Error("Failed to batch resolve bases", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, out)
}

type validateBasesRequest struct {
	EmployeeID string                      `json:"employee_id"`
	Proposed   []insurancesvc.ProposedBase `json:"proposed"`
}

func (h *InsuranceHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateBasesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Validate bases decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	result, err := h.resolver.Validate(r.Context(), req.EmployeeID, chi.URLParam(r, "periodID"), req.Proposed)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *InsuranceHandler) UpsertBase(w http.ResponseWriter, r *http.Request) {
	var req dominsurance.UpsertBaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Upsert base decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.PeriodID = chi.URLParam(r, "periodID")

	stored, err := h.resolver.UpsertManual(r.Context(), req)
	if err != nil {
		slog.Error("Failed to upsert contribution base", "error", err, "employee_id", req.EmployeeID)
		response.HandleError(w, err)
		return
	}

	resp := dominsurance.ContributionBaseResponse{
		ID:              stored.ID,
		EmployeeID:      stored.EmployeeID,
		InsuranceTypeID: stored.InsuranceTypeID,
		PeriodID:        stored.PeriodID,
		BaseAmount:      stored.BaseAmount,
	}
	if stored.InsuranceTypeKey != nil {
		resp.InsuranceType = *stored.InsuranceTypeKey
	}
	response.SuccessWithMessage(w, "Contribution base saved successfully", resp)
}

func (h *InsuranceHandler) ListBases(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		response.BadRequest(w, "employee_id query parameter is required", nil)
		return
	}

	bases, err := h.resolver.ListBases(r.Context(), employeeID, chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]dominsurance.ContributionBaseResponse, 0, len(bases))
	for _, b := range bases {
		resp := dominsurance.ContributionBaseResponse{
			ID:              b.ID,
			EmployeeID:      b.EmployeeID,
			InsuranceTypeID: b.InsuranceTypeID,
			PeriodID:        b.PeriodID,
			BaseAmount:      b.BaseAmount,
		}
		if b.InsuranceTypeKey != nil {
			resp.InsuranceType = *b.InsuranceTypeKey
		}
		out = append(out, resp)
	}
	response.Success(w, out)
}

func (h *InsuranceHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("category_id")
	if categoryID == "" {
		response.BadRequest(w, "category_id query parameter is required", nil)
		return
	}

	rules, err := h.resolver.ListRules(r.Context(), categoryID, chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, rules)
}

func (h *InsuranceHandler) Contributions(w http.ResponseWriter, r *http.Request) {
	employeeID := r.URL.Query().Get("employee_id")
	if employeeID == "" {
		response.BadRequest(w, "employee_id query parameter is required", nil)
		return
	}

	contributions, err := h.resolver.EmployeeContributions(r.Context(), employeeID, chi.URLParam(r, "periodID"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, contributions)
}
