package insurance

import (
	"time"

	"github.com/shopspring/decimal"
)

// InsuranceType - immutable reference data for a social-insurance or
// housing-fund contribution kind.
type InsuranceType struct {
	ID       string
	Key      string
	Name     string
	IsActive bool
}

// CategoryInsuranceRule determines eligibility and base clamping for one
// (category, insurance type) pair. Time-sliced: multiple rows with
// non-overlapping effective ranges; EndDate nil means currently effective.
type CategoryInsuranceRule struct {
	ID              string
	CategoryID      string
	InsuranceTypeID string
	IsApplicable    bool
	EmployeeRate    decimal.Decimal
	EmployerRate    decimal.Decimal
	BaseFloor       decimal.Decimal
	BaseCeiling     decimal.Decimal
	EffectiveDate   time.Time
	EndDate         *time.Time
}

// CoversDate reports whether the rule's effective range contains the date.
// Range is [EffectiveDate, EndDate).
func (r CategoryInsuranceRule) CoversDate(d time.Time) bool {
	if d.Before(r.EffectiveDate) {
		return false
	}
	if r.EndDate != nil && !d.Before(*r.EndDate) {
		return false
	}
	return true
}

// Clamp bounds the amount to [BaseFloor, BaseCeiling], inclusive at both
// ends.
func (r CategoryInsuranceRule) Clamp(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThan(r.BaseFloor) {
		return r.BaseFloor
	}
	if amount.GreaterThan(r.BaseCeiling) {
		return r.BaseCeiling
	}
	return amount
}

// ContributionBase - the effective clamped base for one
// (employee, insurance type, period). Derived or manually set.
type ContributionBase struct {
	ID              string
	EmployeeID      string
	InsuranceTypeID string
	PeriodID        string
	BaseAmount      decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	InsuranceTypeKey  *string
	InsuranceTypeName *string
}
