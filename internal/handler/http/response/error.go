package response

import (
	"errors"
	"net/http"

	"github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/domain/insurance"
	"github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Period domain errors
	case errors.Is(err, period.ErrPeriodNotFound):
		NotFound(w, "Payroll period not found")
	case errors.Is(err, period.ErrPeriodAlreadyExists):
		Conflict(w, "Payroll period already exists for this year and month")
	case errors.Is(err, period.ErrPeriodLocked):
		Conflict(w, "Payroll period is locked")
	case errors.Is(err, period.ErrInvalidStatusTransition):
		UnprocessableEntity(w, "Invalid period status transition")

	// Assignment domain errors
	case errors.Is(err, assignment.ErrCategoryAssignmentNotFound):
		NotFound(w, "Category assignment not found")
	case errors.Is(err, assignment.ErrJobAssignmentNotFound):
		NotFound(w, "Position assignment not found")
	case errors.Is(err, assignment.ErrCategoryNotFound):
		NotFound(w, "Employee category not found")
	case errors.Is(err, assignment.ErrPositionNotFound):
		NotFound(w, "Position not found")

	// Insurance domain errors
	case errors.Is(err, insurance.ErrInsuranceTypeNotFound):
		NotFound(w, "Insurance type not found")
	case errors.Is(err, insurance.ErrRuleNotFound):
		NotFound(w, "No insurance rule effective for this category and date")
	case errors.Is(err, insurance.ErrBaseNotFound):
		NotFound(w, "Contribution base not found")
	case errors.Is(err, insurance.ErrBaseBelowFloor):
		UnprocessableEntity(w, "Contribution base is below the rule floor")
	case errors.Is(err, insurance.ErrBaseAboveCeiling):
		UnprocessableEntity(w, "Contribution base exceeds the rule ceiling")
	case errors.Is(err, insurance.ErrTypeNotApplicable):
		UnprocessableEntity(w, "Insurance type is not applicable for this category")

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrPayrollAlreadyExists):
		Conflict(w, "Payroll record already exists for this employee and period")
	case errors.Is(err, payroll.ErrComponentNotFound):
		NotFound(w, "Salary component not found")
	case errors.Is(err, payroll.ErrItemAlreadyExists):
		Conflict(w, "Payroll already has an item for this component")
	case errors.Is(err, payroll.ErrItemNotFound):
		NotFound(w, "Payroll item not found")
	case errors.Is(err, payroll.ErrInvalidStatusTransition):
		UnprocessableEntity(w, "Invalid payroll status transition")
	case errors.Is(err, payroll.ErrPayrollNotEditable):
		Conflict(w, "Payroll is not in an editable status")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
