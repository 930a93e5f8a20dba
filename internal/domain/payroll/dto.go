package payroll

import (
	"github.com/salarysys/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreatePayrollRequest struct {
	EmployeeID string `json:"employee_id"`
	PeriodID   string `json:"period_id"`
}

func (r *CreatePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if validator.IsEmpty(r.PeriodID) {
		errs = append(errs, validator.ValidationError{Field: "period_id", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AddItemRequest struct {
	PayrollID   string          `json:"-"`
	ComponentID string          `json:"component_id"`
	Amount      decimal.Decimal `json:"amount"`
	Notes       *string         `json:"notes,omitempty"`
}

func (r *AddItemRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ComponentID) {
		errs = append(errs, validator.ValidationError{Field: "component_id", Message: "is required"})
	}
	if r.Amount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateStatusRequest struct {
	PayrollID string
	Status    string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	valid := []string{
		string(PayrollStatusCalculating), string(PayrollStatusCalculated),
		string(PayrollStatusApproved), string(PayrollStatusPaid), string(PayrollStatusCancelled),
	}
	if !validator.IsInSlice(r.Status, valid) {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "is not a valid payroll status"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PayrollItemResponse struct {
	ID            string          `json:"id"`
	ComponentID   string          `json:"component_id"`
	ComponentName string          `json:"component_name,omitempty"`
	Kind          string          `json:"kind,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Notes         *string         `json:"notes,omitempty"`
}

type PayrollResponse struct {
	ID              string                `json:"id"`
	EmployeeID      string                `json:"employee_id"`
	PeriodID        string                `json:"period_id"`
	Status          string                `json:"status"`
	GrossPay        decimal.Decimal       `json:"gross_pay"`
	TotalDeductions decimal.Decimal       `json:"total_deductions"`
	NetPay          decimal.Decimal       `json:"net_pay"`
	Items           []PayrollItemResponse `json:"items,omitempty"`
}

type PeriodSummaryResponse struct {
	PeriodID        string          `json:"period_id"`
	TotalEmployees  int             `json:"total_employees"`
	DraftCount      int             `json:"draft_count"`
	CalculatedCount int             `json:"calculated_count"`
	ApprovedCount   int             `json:"approved_count"`
	PaidCount       int             `json:"paid_count"`
	GrossTotal      decimal.Decimal `json:"gross_total"`
	DeductionTotal  decimal.Decimal `json:"deduction_total"`
	NetTotal        decimal.Decimal `json:"net_total"`
}
