package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	domassignment "github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/handler/http/response"
	assignmentsvc "github.com/salarysys/payroll-backend-go/internal/service/assignment"
)

type AssignmentHandler struct {
	assignments *assignmentsvc.AssignmentService
}

func NewAssignmentHandler(assignments *assignmentsvc.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// employeeIDsQuery parses the optional comma-separated employee_ids filter.
func employeeIDsQuery(r *http.Request) []string {
	raw := r.URL.Query().Get("employee_ids")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (h *AssignmentHandler) AssignCategory(w http.ResponseWriter, r *http.Request) {
	var req domassignment.AssignCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Assign category decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.PeriodID = chi.URLParam(r, "periodID")

	assigned, err := h.assignments.AssignCategory(r.Context(), req)
	if err != nil {
		slog.Error("Failed to assign category", "error", err, "employee_id", req.EmployeeID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Category assigned successfully", assigned)
}

func (h *AssignmentHandler) AssignPosition(w http.ResponseWriter, r *http.Request) {
	var req domassignment.AssignPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Assign position decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.PeriodID = chi.URLParam(r, "periodID")

	assigned, err := h.assignments.AssignPosition(r.Context(), req)
	if err != nil {
		slog.Error("Failed to assign position", "error", err, "employee_id", req.EmployeeID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Position assigned successfully", assigned)
}

func (h *AssignmentHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.assignments.ListCategoryAssignments(r.Context(), chi.URLParam(r, "periodID"), employeeIDsQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, list)
}

func (h *AssignmentHandler) ListPositions(w http.ResponseWriter, r *http.Request) {
	list, err := h.assignments.ListJobAssignments(r.Context(), chi.URLParam(r, "periodID"), employeeIDsQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, list)
}

func (h *AssignmentHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	employeeIDs := employeeIDsQuery(r)
	if len(employeeIDs) == 0 {
		response.BadRequest(w, "employee_ids query parameter is required", nil)
		return
	}

	progress, err := h.assignments.GetProgress(r.Context(), chi.URLParam(r, "periodID"), employeeIDs)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, progress)
}
