package insurance

import (
	"context"
	"time"
)

// InsuranceRepository defines data access for insurance reference data and
// per-period contribution bases.
type InsuranceRepository interface {
	ListActiveTypes(ctx context.Context) ([]InsuranceType, error)
	GetTypeByID(ctx context.Context, id string) (InsuranceType, error)

	// GetRule returns the rule whose effective range covers refDate for the
	// (category, insurance type) pair. ErrRuleNotFound when no slice covers
	// the date.
	GetRule(ctx context.Context, categoryID, insuranceTypeID string, refDate time.Time) (CategoryInsuranceRule, error)
	ListRulesForCategory(ctx context.Context, categoryID string, refDate time.Time) ([]CategoryInsuranceRule, error)

	// UpsertBase keys on (employee_id, insurance_type_id, period_id).
	UpsertBase(ctx context.Context, b ContributionBase) (ContributionBase, error)
	ListBases(ctx context.Context, employeeID, periodID string) ([]ContributionBase, error)

	// GetPriorBase returns the employee's base for the same insurance type
	// in the most recent period before the given one.
	GetPriorBase(ctx context.Context, employeeID, insuranceTypeID, periodID string) (ContributionBase, error)
}
