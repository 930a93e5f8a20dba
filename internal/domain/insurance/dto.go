package insurance

import (
	"github.com/salarysys/payroll-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type UpsertBaseRequest struct {
	EmployeeID      string          `json:"employee_id"`
	InsuranceTypeID string          `json:"insurance_type_id"`
	PeriodID        string          `json:"period_id"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
}

func (r *UpsertBaseRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if validator.IsEmpty(r.InsuranceTypeID) {
		errs = append(errs, validator.ValidationError{Field: "insurance_type_id", Message: "is required"})
	}
	if validator.IsEmpty(r.PeriodID) {
		errs = append(errs, validator.ValidationError{Field: "period_id", Message: "is required"})
	}
	if r.BaseAmount.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "base_amount", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type InsuranceTypeResponse struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

type ContributionBaseResponse struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	InsuranceTypeID string          `json:"insurance_type_id"`
	InsuranceType   string          `json:"insurance_type,omitempty"`
	PeriodID        string          `json:"period_id"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
}
