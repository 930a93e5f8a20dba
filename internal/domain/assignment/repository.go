package assignment

import "context"

// AssignmentRepository defines data access for per-period category and
// position assignments. Upserts key on (employee_id, period_id) so repeated
// invocation is idempotent.
type AssignmentRepository interface {
	UpsertCategoryAssignment(ctx context.Context, a CategoryAssignment) (CategoryAssignment, error)
	GetCategoryAssignment(ctx context.Context, employeeID, periodID string) (CategoryAssignment, error)
	ListCategoryAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]CategoryAssignment, error)

	UpsertJobAssignment(ctx context.Context, a JobAssignment) (JobAssignment, error)
	GetJobAssignment(ctx context.Context, employeeID, periodID string) (JobAssignment, error)
	ListJobAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]JobAssignment, error)

	// GetProgress counts, for the selected employees, how many have a
	// category assignment, a job assignment, at least one contribution base
	// and a payroll for the period.
	GetProgress(ctx context.Context, periodID string, employeeIDs []string) (Progress, error)
}
