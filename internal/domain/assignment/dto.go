package assignment

import (
	"github.com/salarysys/payroll-backend-go/internal/pkg/validator"
)

type AssignCategoryRequest struct {
	EmployeeID string  `json:"employee_id"`
	CategoryID string  `json:"category_id"`
	PeriodID   string  `json:"period_id"`
	Notes      *string `json:"notes,omitempty"`
}

func (r *AssignCategoryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if validator.IsEmpty(r.CategoryID) {
		errs = append(errs, validator.ValidationError{Field: "category_id", Message: "is required"})
	}
	if validator.IsEmpty(r.PeriodID) {
		errs = append(errs, validator.ValidationError{Field: "period_id", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignPositionRequest struct {
	EmployeeID   string `json:"employee_id"`
	PositionID   string `json:"position_id"`
	DepartmentID string `json:"department_id"`
	PeriodID     string `json:"period_id"`
}

func (r *AssignPositionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if validator.IsEmpty(r.PositionID) {
		errs = append(errs, validator.ValidationError{Field: "position_id", Message: "is required"})
	}
	if validator.IsEmpty(r.DepartmentID) {
		errs = append(errs, validator.ValidationError{Field: "department_id", Message: "is required"})
	}
	if validator.IsEmpty(r.PeriodID) {
		errs = append(errs, validator.ValidationError{Field: "period_id", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CategoryAssignmentResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	PeriodID     string  `json:"period_id"`
	Notes        *string `json:"notes,omitempty"`
}

type JobAssignmentResponse struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	PositionID     string `json:"position_id"`
	PositionName   string `json:"position_name,omitempty"`
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name,omitempty"`
	PeriodID       string `json:"period_id"`
}

type ProgressResponse struct {
	SelectedCount    int `json:"selected_count"`
	CategoryAssigned int `json:"category_assigned"`
	PositionAssigned int `json:"position_assigned"`
	BasesResolved    int `json:"bases_resolved"`
	PayrollsCreated  int `json:"payrolls_created"`
}
