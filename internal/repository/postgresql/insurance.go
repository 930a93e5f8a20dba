package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/salarysys/payroll-backend-go/internal/domain/insurance"
	"github.com/salarysys/payroll-backend-go/internal/pkg/database"
)

type insuranceRepository struct {
	db *database.DB
}

func NewInsuranceRepository(db *database.DB) insurance.InsuranceRepository {
	return &insuranceRepository{db: db}
}

// ========== TYPES ==========

func (r *insuranceRepository) ListActiveTypes(ctx context.Context) ([]insurance.InsuranceType, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, key, name, is_active
		FROM insurance_types
		WHERE is_active = true
		ORDER BY key
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list insurance types: %w", err)
	}
	defer rows.Close()

	var types []insurance.InsuranceType
	for rows.Next() {
		var t insurance.InsuranceType
		if err := rows.Scan(&t.ID, &t.Key, &t.Name, &t.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan insurance type: %w", err)
		}
		types = append(types, t)
	}

	return types, nil
}

func (r *insuranceRepository) GetTypeByID(ctx context.Context, id string) (insurance.InsuranceType, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT id, key, name, is_active FROM insurance_types WHERE id = $1`

	var t insurance.InsuranceType
	err := q.QueryRow(ctx, query, id).Scan(&t.ID, &t.Key, &t.Name, &t.IsActive)
	if err != nil {
		if err == pgx.ErrNoRows {
			return insurance.InsuranceType{}, insurance.ErrInsuranceTypeNotFound
		}
		return insurance.InsuranceType{}, fmt.Errorf("failed to get insurance type: %w", err)
	}

	return t, nil
}

// ========== RULES ==========

const ruleColumns = `id, category_id, insurance_type_id, is_applicable,
	employee_rate, employer_rate, base_floor, base_ceiling, effective_date, end_date`

func scanRule(row pgx.Row) (insurance.CategoryInsuranceRule, error) {
	var rule insurance.CategoryInsuranceRule
	err := row.Scan(
		&rule.ID, &rule.CategoryID, &rule.InsuranceTypeID, &rule.IsApplicable,
		&rule.EmployeeRate, &rule.EmployerRate, &rule.BaseFloor, &rule.BaseCeiling,
		&rule.EffectiveDate, &rule.EndDate,
	)
	return rule, err
}

func (r *insuranceRepository) GetRule(ctx context.Context, categoryID, insuranceTypeID string, refDate time.Time) (insurance.CategoryInsuranceRule, error) {
	q := GetQuerier(ctx, r.db)

	// Effective range is [effective_date, end_date); NULL end_date is open.
	query := fmt.Sprintf(`
		SELECT %s
		FROM category_insurance_rules
		WHERE category_id = $1 AND insurance_type_id = $2
			AND effective_date <= $3
			AND (end_date IS NULL OR end_date > $3)
	`, ruleColumns)

	rule, err := scanRule(q.QueryRow(ctx, query, categoryID, insuranceTypeID, refDate))
	if err != nil {
		if err == pgx.ErrNoRows {
			return insurance.CategoryInsuranceRule{}, insurance.ErrRuleNotFound
		}
		return insurance.CategoryInsuranceRule{}, fmt.Errorf("failed to get insurance rule: %w", err)
	}

	return rule, nil
}

func (r *insuranceRepository) ListRulesForCategory(ctx context.Context, categoryID string, refDate time.Time) ([]insurance.CategoryInsuranceRule, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s
		FROM category_insurance_rules
		WHERE category_id = $1
			AND effective_date <= $2
			AND (end_date IS NULL OR end_date > $2)
		ORDER BY insurance_type_id
	`, ruleColumns)

	rows, err := q.Query(ctx, query, categoryID, refDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list insurance rules: %w", err)
	}
	defer rows.Close()

	var rules []insurance.CategoryInsuranceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan insurance rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// ========== CONTRIBUTION BASES ==========

func (r *insuranceRepository) UpsertBase(ctx context.Context, b insurance.ContributionBase) (insurance.ContributionBase, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO contribution_bases (employee_id, insurance_type_id, period_id, base_amount)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (employee_id, insurance_type_id, period_id) DO UPDATE SET
			base_amount = EXCLUDED.base_amount,
			updated_at = NOW()
		RETURNING id, employee_id, insurance_type_id, period_id, base_amount, created_at, updated_at
	`

	var out insurance.ContributionBase
	err := q.QueryRow(ctx, query, b.EmployeeID, b.InsuranceTypeID, b.PeriodID, b.BaseAmount).Scan(
		&out.ID, &out.EmployeeID, &out.InsuranceTypeID, &out.PeriodID, &out.BaseAmount,
		&out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return insurance.ContributionBase{}, fmt.Errorf("failed to upsert contribution base: %w", err)
	}

	return out, nil
}

func (r *insuranceRepository) ListBases(ctx context.Context, employeeID, periodID string) ([]insurance.ContributionBase, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT cb.id, cb.employee_id, cb.insurance_type_id, cb.period_id, cb.base_amount,
			   cb.created_at, cb.updated_at, it.key as type_key, it.name as type_name
		FROM contribution_bases cb
		JOIN insurance_types it ON cb.insurance_type_id = it.id
		WHERE cb.employee_id = $1 AND cb.period_id = $2
		ORDER BY it.key
	`

	rows, err := q.Query(ctx, query, employeeID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contribution bases: %w", err)
	}
	defer rows.Close()

	var bases []insurance.ContributionBase
	for rows.Next() {
		var b insurance.ContributionBase
		if err := rows.Scan(
			&b.ID, &b.EmployeeID, &b.InsuranceTypeID, &b.PeriodID, &b.BaseAmount,
			&b.CreatedAt, &b.UpdatedAt, &b.InsuranceTypeKey, &b.InsuranceTypeName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contribution base: %w", err)
		}
		bases = append(bases, b)
	}

	return bases, nil
}

func (r *insuranceRepository) GetPriorBase(ctx context.Context, employeeID, insuranceTypeID, periodID string) (insurance.ContributionBase, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT cb.id, cb.employee_id, cb.insurance_type_id, cb.period_id, cb.base_amount,
			   cb.created_at, cb.updated_at
		FROM contribution_bases cb
		JOIN periods p ON cb.period_id = p.id
		JOIN periods cur ON cur.id = $3
		WHERE cb.employee_id = $1 AND cb.insurance_type_id = $2
			AND (p.year, p.month) < (cur.year, cur.month)
		ORDER BY p.year DESC, p.month DESC
		LIMIT 1
	`

	var b insurance.ContributionBase
	err := q.QueryRow(ctx, query, employeeID, insuranceTypeID, periodID).Scan(
		&b.ID, &b.EmployeeID, &b.InsuranceTypeID, &b.PeriodID, &b.BaseAmount,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return insurance.ContributionBase{}, insurance.ErrBaseNotFound
		}
		return insurance.ContributionBase{}, fmt.Errorf("failed to get prior contribution base: %w", err)
	}

	return b, nil
}
