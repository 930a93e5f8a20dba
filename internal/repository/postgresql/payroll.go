package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	"github.com/salarysys/payroll-backend-go/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== COMPONENTS ==========

func (r *payrollRepository) ListComponents(ctx context.Context, activeOnly bool) ([]payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, kind, category, is_taxable, is_active
		FROM salary_components
	`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY kind, name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary components: %w", err)
	}
	defer rows.Close()

	var components []payroll.SalaryComponent
	for rows.Next() {
		var c payroll.SalaryComponent
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.Category, &c.IsTaxable, &c.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan salary component: %w", err)
		}
		components = append(components, c)
	}

	return components, nil
}

func (r *payrollRepository) GetComponentByID(ctx context.Context, id string) (payroll.SalaryComponent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, kind, category, is_taxable, is_active
		FROM salary_components
		WHERE id = $1
	`

	var c payroll.SalaryComponent
	err := q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Kind, &c.Category, &c.IsTaxable, &c.IsActive)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.SalaryComponent{}, payroll.ErrComponentNotFound
		}
		return payroll.SalaryComponent{}, fmt.Errorf("failed to get salary component: %w", err)
	}

	return c, nil
}

// ========== PAYROLL RECORDS ==========

const payrollColumns = `id, employee_id, period_id, status, gross_pay, total_deductions, net_pay, created_at, updated_at`

func scanPayroll(row pgx.Row) (payroll.Payroll, error) {
	var p payroll.Payroll
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.PeriodID, &p.Status,
		&p.GrossPay, &p.TotalDeductions, &p.NetPay,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *payrollRepository) CreatePayroll(ctx context.Context, p payroll.Payroll) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO payrolls (employee_id, period_id, status, gross_pay, total_deductions, net_pay)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, payrollColumns)

	created, err := scanPayroll(q.QueryRow(ctx, query,
		p.EmployeeID, p.PeriodID, p.Status, p.GrossPay, p.TotalDeductions, p.NetPay,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_employee_period") {
			return payroll.Payroll{}, payroll.ErrPayrollAlreadyExists
		}
		return payroll.Payroll{}, fmt.Errorf("failed to create payroll: %w", err)
	}

	return created, nil
}

func (r *payrollRepository) GetPayrollByID(ctx context.Context, id string) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM payrolls WHERE id = $1`, payrollColumns)

	p, err := scanPayroll(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to get payroll: %w", err)
	}

	return p, nil
}

func (r *payrollRepository) GetPayrollByEmployeePeriod(ctx context.Context, employeeID, periodID string) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM payrolls WHERE employee_id = $1 AND period_id = $2`, payrollColumns)

	p, err := scanPayroll(q.QueryRow(ctx, query, employeeID, periodID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to get payroll: %w", err)
	}

	return p, nil
}

func (r *payrollRepository) ListPayrollsByPeriod(ctx context.Context, periodID string, employeeIDs []string) ([]payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM payrolls WHERE period_id = $1`, payrollColumns)
	args := []interface{}{periodID}
	if len(employeeIDs) > 0 {
		query += ` AND employee_id = ANY($2)`
		args = append(args, employeeIDs)
	}
	query += ` ORDER BY employee_id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payrolls: %w", err)
	}
	defer rows.Close()

	var payrolls []payroll.Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll: %w", err)
		}
		payrolls = append(payrolls, p)
	}

	return payrolls, nil
}

func (r *payrollRepository) UpdateStatus(ctx context.Context, id string, status payroll.PayrollStatus) (payroll.Payroll, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE payrolls
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, payrollColumns)

	p, err := scanPayroll(q.QueryRow(ctx, query, id, status))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Payroll{}, payroll.ErrPayrollNotFound
		}
		return payroll.Payroll{}, fmt.Errorf("failed to update payroll status: %w", err)
	}

	return p, nil
}

// ========== ITEMS ==========

func (r *payrollRepository) InsertItem(ctx context.Context, item payroll.PayrollItem) (payroll.PayrollItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_items (payroll_id, component_id, amount, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, payroll_id, component_id, amount, notes, created_at
	`

	var out payroll.PayrollItem
	err := q.QueryRow(ctx, query, item.PayrollID, item.ComponentID, item.Amount, item.Notes).Scan(
		&out.ID, &out.PayrollID, &out.ComponentID, &out.Amount, &out.Notes, &out.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_item_component") {
			return payroll.PayrollItem{}, payroll.ErrItemAlreadyExists
		}
		return payroll.PayrollItem{}, fmt.Errorf("failed to insert payroll item: %w", err)
	}

	return out, nil
}

func (r *payrollRepository) ListItems(ctx context.Context, payrollID string) ([]payroll.PayrollItem, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT pi.id, pi.payroll_id, pi.component_id, pi.amount, pi.notes, pi.created_at,
			   sc.name as component_name, sc.kind as component_kind, sc.is_taxable
		FROM payroll_items pi
		JOIN salary_components sc ON pi.component_id = sc.id
		WHERE pi.payroll_id = $1
		ORDER BY sc.kind, sc.name
	`

	rows, err := q.Query(ctx, query, payrollID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll items: %w", err)
	}
	defer rows.Close()

	var items []payroll.PayrollItem
	for rows.Next() {
		var item payroll.PayrollItem
		if err := rows.Scan(
			&item.ID, &item.PayrollID, &item.ComponentID, &item.Amount, &item.Notes, &item.CreatedAt,
			&item.ComponentName, &item.ComponentKind, &item.IsTaxable,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payroll item: %w", err)
		}
		items = append(items, item)
	}

	return items, nil
}

func (r *payrollRepository) UpdateTotals(ctx context.Context, payrollID string, totals payroll.Totals) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payrolls
		SET gross_pay = $2, total_deductions = $3, net_pay = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, payrollID, totals.GrossPay, totals.TotalDeductions, totals.NetPay).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrPayrollNotFound
		}
		return fmt.Errorf("failed to update payroll totals: %w", err)
	}

	return nil
}

func (r *payrollRepository) GetLatestGrossPay(ctx context.Context, employeeID string) (payroll.Totals, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT pr.gross_pay, pr.total_deductions, pr.net_pay
		FROM payrolls pr
		JOIN periods p ON pr.period_id = p.id
		WHERE pr.employee_id = $1 AND pr.status <> 'cancelled'
		ORDER BY p.year DESC, p.month DESC
		LIMIT 1
	`

	var t payroll.Totals
	err := q.QueryRow(ctx, query, employeeID).Scan(&t.GrossPay, &t.TotalDeductions, &t.NetPay)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Totals{}, payroll.ErrNoGrossPayHistory
		}
		return payroll.Totals{}, fmt.Errorf("failed to get latest gross pay: %w", err)
	}

	return t, nil
}

// ========== AGGREGATIONS ==========

func (r *payrollRepository) GetPeriodSummary(ctx context.Context, periodID string) (payroll.PeriodSummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) as total_employees,
			COUNT(*) FILTER (WHERE status = 'draft') as draft_count,
			COUNT(*) FILTER (WHERE status = 'calculated') as calculated_count,
			COUNT(*) FILTER (WHERE status = 'approved') as approved_count,
			COUNT(*) FILTER (WHERE status = 'paid') as paid_count,
			COALESCE(SUM(gross_pay), 0) as gross_total,
			COALESCE(SUM(total_deductions), 0) as deduction_total,
			COALESCE(SUM(net_pay), 0) as net_total
		FROM payrolls
		WHERE period_id = $1 AND status <> 'cancelled'
	`

	var s payroll.PeriodSummary
	err := q.QueryRow(ctx, query, periodID).Scan(
		&s.TotalEmployees, &s.DraftCount, &s.CalculatedCount, &s.ApprovedCount, &s.PaidCount,
		&s.GrossTotal, &s.DeductionTotal, &s.NetTotal,
	)
	if err != nil {
		return payroll.PeriodSummary{}, fmt.Errorf("failed to get period summary: %w", err)
	}

	s.PeriodID = periodID
	return s, nil
}
