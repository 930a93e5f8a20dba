package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComponentKind enum
type ComponentKind string

const (
	ComponentKindEarning   ComponentKind = "earning"
	ComponentKindDeduction ComponentKind = "deduction"
)

// SalaryComponent - master earning/deduction component. Reference data.
type SalaryComponent struct {
	ID        string
	Name      string
	Kind      ComponentKind
	Category  string
	IsTaxable bool
	IsActive  bool
}

// PayrollStatus enum
type PayrollStatus string

const (
	PayrollStatusDraft       PayrollStatus = "draft"
	PayrollStatusCalculating PayrollStatus = "calculating"
	PayrollStatusCalculated  PayrollStatus = "calculated"
	PayrollStatusApproved    PayrollStatus = "approved"
	PayrollStatusPaid        PayrollStatus = "paid"
	PayrollStatusCancelled   PayrollStatus = "cancelled"
)

// CanTransitionTo reports whether the status change is legal. Cancellation
// is reachable from any non-paid status.
func (s PayrollStatus) CanTransitionTo(next PayrollStatus) bool {
	if next == PayrollStatusCancelled {
		return s != PayrollStatusPaid && s != PayrollStatusCancelled
	}
	switch s {
	case PayrollStatusDraft:
		return next == PayrollStatusCalculating
	case PayrollStatusCalculating:
		return next == PayrollStatusCalculated
	case PayrollStatusCalculated:
		return next == PayrollStatusApproved
	case PayrollStatusApproved:
		return next == PayrollStatusPaid
	default:
		return false
	}
}

// Payroll - one computed payroll record per (employee, period). The cached
// totals must equal the item sums whenever status is not draft.
type Payroll struct {
	ID              string
	EmployeeID      string
	PeriodID        string
	Status          PayrollStatus
	GrossPay        decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PayrollItem - append-only line item; one row per component per payroll.
type PayrollItem struct {
	ID          string
	PayrollID   string
	ComponentID string
	Amount      decimal.Decimal
	Notes       *string
	CreatedAt   time.Time

	// Joined fields
	ComponentName *string
	ComponentKind *ComponentKind
	IsTaxable     *bool
}

// Totals - aggregated sums over a payroll's items.
type Totals struct {
	GrossPay        decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal
}

// PeriodSummary - review-screen aggregate for one period.
type PeriodSummary struct {
	PeriodID        string
	TotalEmployees  int
	DraftCount      int
	CalculatedCount int
	ApprovedCount   int
	PaidCount       int
	GrossTotal      decimal.Decimal
	DeductionTotal  decimal.Decimal
	NetTotal        decimal.Decimal
}
