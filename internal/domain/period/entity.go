package period

import "time"

// PeriodStatus enum
type PeriodStatus string

const (
	PeriodStatusDraft  PeriodStatus = "draft"
	PeriodStatusOpen   PeriodStatus = "open"
	PeriodStatusClosed PeriodStatus = "closed"
)

// Period - payroll period master record. Immutable once payroll records
// reference it in a non-draft status.
type Period struct {
	ID        string
	Year      int
	Month     int
	StartDate time.Time
	EndDate   time.Time
	PayDate   time.Time
	Status    PeriodStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReferenceDate is the date insurance rules are sliced against for this
// period.
func (p Period) ReferenceDate() time.Time {
	return p.StartDate
}

// CanTransitionTo reports whether the status change is legal.
// draft -> open -> closed, no way back.
func (p Period) CanTransitionTo(next PeriodStatus) bool {
	switch p.Status {
	case PeriodStatusDraft:
		return next == PeriodStatusOpen
	case PeriodStatusOpen:
		return next == PeriodStatusClosed
	default:
		return false
	}
}
