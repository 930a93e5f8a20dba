package assignment

import "time"

// CategoryAssignment - employee category for a payroll period.
// At most one per (employee, period); upserts replace.
type CategoryAssignment struct {
	ID         string
	EmployeeID string
	CategoryID string
	PeriodID   string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined fields
	CategoryName *string
}

// JobAssignment - employee position and department for a payroll period.
// Same uniqueness rule as CategoryAssignment.
type JobAssignment struct {
	ID           string
	EmployeeID   string
	PositionID   string
	DepartmentID string
	PeriodID     string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined fields
	PositionName   *string
	DepartmentName *string
}

// Progress - per-period completion counts for the selected employees,
// queried against the three dependent tables.
type Progress struct {
	SelectedCount    int
	CategoryAssigned int
	PositionAssigned int
	BasesResolved    int
	PayrollsCreated  int
}
