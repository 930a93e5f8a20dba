package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/pkg/database"
)

type periodRepository struct {
	db *database.DB
}

func NewPeriodRepository(db *database.DB) period.PeriodRepository {
	return &periodRepository{db: db}
}

const periodColumns = `id, year, month, start_date, end_date, pay_date, status, created_at, updated_at`

func scanPeriod(row pgx.Row) (period.Period, error) {
	var p period.Period
	err := row.Scan(
		&p.ID, &p.Year, &p.Month, &p.StartDate, &p.EndDate, &p.PayDate,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *periodRepository) Create(ctx context.Context, p period.Period) (period.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		INSERT INTO periods (year, month, start_date, end_date, pay_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, periodColumns)

	created, err := scanPeriod(q.QueryRow(ctx, query,
		p.Year, p.Month, p.StartDate, p.EndDate, p.PayDate, p.Status,
	))
	if err != nil {
		if strings.Contains(err.Error(), "uk_period_year_month") {
			return period.Period{}, period.ErrPeriodAlreadyExists
		}
		return period.Period{}, fmt.Errorf("failed to create period: %w", err)
	}

	return created, nil
}

func (r *periodRepository) GetByID(ctx context.Context, id string) (period.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM periods WHERE id = $1`, periodColumns)

	p, err := scanPeriod(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return period.Period{}, period.ErrPeriodNotFound
		}
		return period.Period{}, fmt.Errorf("failed to get period: %w", err)
	}

	return p, nil
}

func (r *periodRepository) GetByYearMonth(ctx context.Context, year, month int) (period.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM periods WHERE year = $1 AND month = $2`, periodColumns)

	p, err := scanPeriod(q.QueryRow(ctx, query, year, month))
	if err != nil {
		if err == pgx.ErrNoRows {
			return period.Period{}, period.ErrPeriodNotFound
		}
		return period.Period{}, fmt.Errorf("failed to get period: %w", err)
	}

	return p, nil
}

func (r *periodRepository) List(ctx context.Context) ([]period.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`SELECT %s FROM periods ORDER BY year DESC, month DESC`, periodColumns)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	defer rows.Close()

	var periods []period.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, p)
	}

	return periods, nil
}

func (r *periodRepository) UpdateStatus(ctx context.Context, id string, status period.PeriodStatus) (period.Period, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE periods
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, periodColumns)

	p, err := scanPeriod(q.QueryRow(ctx, query, id, status))
	if err != nil {
		if err == pgx.ErrNoRows {
			return period.Period{}, period.ErrPeriodNotFound
		}
		return period.Period{}, fmt.Errorf("failed to update period status: %w", err)
	}

	return p, nil
}

func (r *periodRepository) HasNonDraftPayrolls(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS(
			SELECT 1 FROM payrolls
			WHERE period_id = $1 AND status <> 'draft'
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check period references: %w", err)
	}

	return exists, nil
}
