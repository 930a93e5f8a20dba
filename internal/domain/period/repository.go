package period

import "context"

// PeriodRepository defines data access methods for payroll periods.
type PeriodRepository interface {
	Create(ctx context.Context, p Period) (Period, error)
	GetByID(ctx context.Context, id string) (Period, error)
	GetByYearMonth(ctx context.Context, year, month int) (Period, error)
	List(ctx context.Context) ([]Period, error)
	UpdateStatus(ctx context.Context, id string, status PeriodStatus) (Period, error)

	// HasNonDraftPayrolls reports whether any payroll in a status other than
	// draft references the period.
	HasNonDraftPayrolls(ctx context.Context, id string) (bool, error)
}
