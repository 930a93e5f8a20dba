package payroll

import "context"

// PayrollRepository defines data access methods for payroll records, line
// items and salary components.
type PayrollRepository interface {
	// Components
	ListComponents(ctx context.Context, activeOnly bool) ([]SalaryComponent, error)
	GetComponentByID(ctx context.Context, id string) (SalaryComponent, error)

	// Payroll records
	CreatePayroll(ctx context.Context, p Payroll) (Payroll, error)
	GetPayrollByID(ctx context.Context, id string) (Payroll, error)
	GetPayrollByEmployeePeriod(ctx context.Context, employeeID, periodID string) (Payroll, error)
	ListPayrollsByPeriod(ctx context.Context, periodID string, employeeIDs []string) ([]Payroll, error)
	UpdateStatus(ctx context.Context, id string, status PayrollStatus) (Payroll, error)

	// Items. InsertItem and UpdateTotals run against the querier on ctx so
	// the service can put both in one transaction.
	InsertItem(ctx context.Context, item PayrollItem) (PayrollItem, error)
	ListItems(ctx context.Context, payrollID string) ([]PayrollItem, error)
	UpdateTotals(ctx context.Context, payrollID string, totals Totals) error

	// GetLatestGrossPay returns the most recent gross pay recorded for the
	// employee across all periods, for contribution-base derivation.
	GetLatestGrossPay(ctx context.Context, employeeID string) (Totals, error)

	// Aggregations
	GetPeriodSummary(ctx context.Context, periodID string) (PeriodSummary, error)
}
