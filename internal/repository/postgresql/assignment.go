package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/pkg/database"
)

type assignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) assignment.AssignmentRepository {
	return &assignmentRepository{db: db}
}

// ========== CATEGORY ASSIGNMENTS ==========

func (r *assignmentRepository) UpsertCategoryAssignment(ctx context.Context, a assignment.CategoryAssignment) (assignment.CategoryAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO category_assignments (employee_id, category_id, period_id, notes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id, period_id) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id, employee_id, category_id, period_id, notes, created_at, updated_at
	`

	var out assignment.CategoryAssignment
	err := q.QueryRow(ctx, query, a.EmployeeID, a.CategoryID, a.PeriodID, a.Notes).Scan(
		&out.ID, &out.EmployeeID, &out.CategoryID, &out.PeriodID, &out.Notes,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return assignment.CategoryAssignment{}, fmt.Errorf("failed to upsert category assignment: %w", err)
	}

	return out, nil
}

func (r *assignmentRepository) GetCategoryAssignment(ctx context.Context, employeeID, periodID string) (assignment.CategoryAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ca.id, ca.employee_id, ca.category_id, ca.period_id, ca.notes,
			   ca.created_at, ca.updated_at, ec.name as category_name
		FROM category_assignments ca
		JOIN employee_categories ec ON ca.category_id = ec.id
		WHERE ca.employee_id = $1 AND ca.period_id = $2
	`

	var out assignment.CategoryAssignment
	err := q.QueryRow(ctx, query, employeeID, periodID).Scan(
		&out.ID, &out.EmployeeID, &out.CategoryID, &out.PeriodID, &out.Notes,
		&out.CreatedAt, &out.UpdatedAt, &out.CategoryName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return assignment.CategoryAssignment{}, assignment.ErrCategoryAssignmentNotFound
		}
		return assignment.CategoryAssignment{}, fmt.Errorf("failed to get category assignment: %w", err)
	}

	return out, nil
}

func (r *assignmentRepository) ListCategoryAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]assignment.CategoryAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ca.id, ca.employee_id, ca.category_id, ca.period_id, ca.notes,
			   ca.created_at, ca.updated_at, ec.name as category_name
		FROM category_assignments ca
		JOIN employee_categories ec ON ca.category_id = ec.id
		WHERE ca.period_id = $1
	`
	args := []interface{}{periodID}
	if len(employeeIDs) > 0 {
		query += ` AND ca.employee_id = ANY($2)`
		args = append(args, employeeIDs)
	}
	query += ` ORDER BY ca.employee_id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list category assignments: %w", err)
	}
	defer rows.Close()

	var assignments []assignment.CategoryAssignment
	for rows.Next() {
		var out assignment.CategoryAssignment
		if err := rows.Scan(
			&out.ID, &out.EmployeeID, &out.CategoryID, &out.PeriodID, &out.Notes,
			&out.CreatedAt, &out.UpdatedAt, &out.CategoryName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category assignment: %w", err)
		}
		assignments = append(assignments, out)
	}

	return assignments, nil
}

// ========== JOB ASSIGNMENTS ==========

func (r *assignmentRepository) UpsertJobAssignment(ctx context.Context, a assignment.JobAssignment) (assignment.JobAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO job_assignments (employee_id, position_id, department_id, period_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id, period_id) DO UPDATE SET
			position_id = EXCLUDED.position_id,
			department_id = EXCLUDED.department_id,
			updated_at = NOW()
		RETURNING id, employee_id, position_id, department_id, period_id, created_at, updated_at
	`

	var out assignment.JobAssignment
	err := q.QueryRow(ctx, query, a.EmployeeID, a.PositionID, a.DepartmentID, a.PeriodID).Scan(
		&out.ID, &out.EmployeeID, &out.PositionID, &out.DepartmentID, &out.PeriodID,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return assignment.JobAssignment{}, fmt.Errorf("failed to upsert job assignment: %w", err)
	}

	return out, nil
}

func (r *assignmentRepository) GetJobAssignment(ctx context.Context, employeeID, periodID string) (assignment.JobAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ja.id, ja.employee_id, ja.position_id, ja.department_id, ja.period_id,
			   ja.created_at, ja.updated_at, p.name as position_name, d.name as department_name
		FROM job_assignments ja
		JOIN positions p ON ja.position_id = p.id
		JOIN departments d ON ja.department_id = d.id
		WHERE ja.employee_id = $1 AND ja.period_id = $2
	`

	var out assignment.JobAssignment
	err := q.QueryRow(ctx, query, employeeID, periodID).Scan(
		&out.ID, &out.EmployeeID, &out.PositionID, &out.DepartmentID, &out.PeriodID,
		&out.CreatedAt, &out.UpdatedAt, &out.PositionName, &out.DepartmentName,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return assignment.JobAssignment{}, assignment.ErrJobAssignmentNotFound
		}
		return assignment.JobAssignment{}, fmt.Errorf("failed to get job assignment: %w", err)
	}

	return out, nil
}

func (r *assignmentRepository) ListJobAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]assignment.JobAssignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ja.id, ja.employee_id, ja.position_id, ja.department_id, ja.period_id,
			   ja.created_at, ja.updated_at, p.name as position_name, d.name as department_name
		FROM job_assignments ja
		JOIN positions p ON ja.position_id = p.id
		JOIN departments d ON ja.department_id = d.id
		WHERE ja.period_id = $1
	`
	args := []interface{}{periodID}
	if len(employeeIDs) > 0 {
		query += ` AND ja.employee_id = ANY($2)`
		args = append(args, employeeIDs)
	}
	query += ` ORDER BY ja.employee_id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job assignments: %w", err)
	}
	defer rows.Close()

	var assignments []assignment.JobAssignment
	for rows.Next() {
		var out assignment.JobAssignment
		if err := rows.Scan(
			&out.ID, &out.EmployeeID, &out.PositionID, &out.DepartmentID, &out.PeriodID,
			&out.CreatedAt, &out.UpdatedAt, &out.PositionName, &out.DepartmentName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job assignment: %w", err)
		}
		assignments = append(assignments, out)
	}

	return assignments, nil
}

// ========== PROGRESS ==========

func (r *assignmentRepository) GetProgress(ctx context.Context, periodID string, employeeIDs []string) (assignment.Progress, error) {
	q := GetQuerier(ctx, r.db)

	// One pass over the selected employee set, counting completion in each
	// dependent table.
	query := `
		SELECT
			COUNT(DISTINCT ca.employee_id) as category_assigned,
			COUNT(DISTINCT ja.employee_id) as position_assigned,
			COUNT(DISTINCT cb.employee_id) as bases_resolved,
			COUNT(DISTINCT pr.employee_id) as payrolls_created
		FROM unnest($2::text[]) AS sel(employee_id)
		LEFT JOIN category_assignments ca
			ON ca.employee_id = sel.employee_id AND ca.period_id = $1
		LEFT JOIN job_assignments ja
			ON ja.employee_id = sel.employee_id AND ja.period_id = $1
		LEFT JOIN contribution_bases cb
			ON cb.employee_id = sel.employee_id AND cb.period_id = $1
		LEFT JOIN payrolls pr
			ON pr.employee_id = sel.employee_id AND pr.period_id = $1
	`

	var p assignment.Progress
	p.SelectedCount = len(employeeIDs)
	err := q.QueryRow(ctx, query, periodID, employeeIDs).Scan(
		&p.CategoryAssigned, &p.PositionAssigned, &p.BasesResolved, &p.PayrollsCreated,
	)
	if err != nil {
		return assignment.Progress{}, fmt.Errorf("failed to get assignment progress: %w", err)
	}

	return p, nil
}
