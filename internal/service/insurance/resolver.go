// Package insurance resolves per-period contribution bases: given an
// employee's category and the effective rule set, it derives, clamps and
// persists the base amount for every applicable insurance type.
package insurance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/domain/insurance"
	"github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/pkg/messaging"
	"github.com/shopspring/decimal"
)

// Resolution is the outcome of resolving one (employee, insurance type)
// pair. When Applicable is false no base row is produced and Reason says
// why; Reason also records derivation failures in batch mode.
type Resolution struct {
	EmployeeID      string          `json:"employee_id"`
	InsuranceTypeID string          `json:"insurance_type_id"`
	InsuranceType   string          `json:"insurance_type,omitempty"`
	Applicable      bool            `json:"applicable"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	Clamped         bool            `json:"clamped"`
	Reason          string          `json:"reason,omitempty"`

	// Failed marks a resolution that errored mid-batch, as opposed to a
	// type that is cleanly not applicable. Reason carries the cause.
	Failed bool `json:"failed,omitempty"`
}

// ProposedBase is a caller-supplied base awaiting validation.
type ProposedBase struct {
	InsuranceTypeID string          `json:"insurance_type_id"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
}

// ValidationResult reports rule violations (errors) and gross-pay
// plausibility findings (warnings) for a proposed base set.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

var (
	deviationHigh = decimal.NewFromInt(2)
	deviationLow  = decimal.RequireFromString("0.5")
)

type ResolverService struct {
	insuranceRepo  insurance.InsuranceRepository
	assignmentRepo assignment.AssignmentRepository
	periodRepo     period.PeriodRepository
	payrollRepo    payroll.PayrollRepository
	publisher      messaging.ChangePublisher
	logger         *slog.Logger
}

func NewResolverService(
	insuranceRepo insurance.InsuranceRepository,
	assignmentRepo assignment.AssignmentRepository,
	periodRepo period.PeriodRepository,
	payrollRepo payroll.PayrollRepository,
	publisher messaging.ChangePublisher,
	logger *slog.Logger,
) *ResolverService {
	return &ResolverService{
		insuranceRepo:  insuranceRepo,
		assignmentRepo: assignmentRepo,
		periodRepo:     periodRepo,
		payrollRepo:    payrollRepo,
		publisher:      publisher,
		logger:         logger,
	}
}

// candidateBase derives the starting amount before clamping: a caller
// candidate wins, then the prior period's base for the same type, then
// the employee's latest recorded gross pay, then the rule floor.
func (s *ResolverService) candidateBase(
	ctx context.Context,
	employeeID, insuranceTypeID, periodID string,
	candidate *decimal.Decimal,
	rule insurance.CategoryInsuranceRule,
) (decimal.Decimal, error) {
	if candidate != nil {
		return *candidate, nil
	}

	prior, err := s.insuranceRepo.GetPriorBase(ctx, employeeID, insuranceTypeID, periodID)
	if err == nil {
		return prior.BaseAmount, nil
	}
	if !errors.Is(err, insurance.ErrBaseNotFound) {
		return decimal.Zero, err
	}

	totals, err := s.payrollRepo.GetLatestGrossPay(ctx, employeeID)
	if err == nil {
		return totals.GrossPay, nil
	}
	if !errors.Is(err, payroll.ErrNoGrossPayHistory) {
		return decimal.Zero, err
	}

	return rule.BaseFloor, nil
}

// Resolve determines and persists the contribution base for one employee
// and insurance type. A nil candidate triggers the derivation chain. When
// the category rule marks the type not applicable the result carries
// Applicable=false and nothing is written.
func (s *ResolverService) Resolve(
	ctx context.Context,
	employeeID, insuranceTypeID, periodID string,
	candidate *decimal.Decimal,
) (Resolution, error) {
	res := Resolution{EmployeeID: employeeID, InsuranceTypeID: insuranceTypeID}

	insuranceType, err := s.insuranceRepo.GetTypeByID(ctx, insuranceTypeID)
	if err != nil {
		return res, err
	}
	res.InsuranceType = insuranceType.Key

	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return res, err
	}

	cat, err := s.assignmentRepo.GetCategoryAssignment(ctx, employeeID, periodID)
	if err != nil {
		return res, fmt.Errorf("employee %s has no category for the period: %w", employeeID, err)
	}

	rule, err := s.insuranceRepo.GetRule(ctx, cat.CategoryID, insuranceTypeID, p.ReferenceDate())
	if errors.Is(err, insurance.ErrRuleNotFound) {
		res.Applicable = false
		res.Reason = "no rule effective for employee category"
		return res, nil
	}
	if err != nil {
		return res, err
	}

	if !rule.IsApplicable {
		res.Applicable = false
		res.Reason = "not applicable for employee category"
		return res, nil
	}

	raw, err := s.candidateBase(ctx, employeeID, insuranceTypeID, periodID, candidate, rule)
	if err != nil {
		return res, err
	}

	clamped := rule.Clamp(raw)
	res.Applicable = true
	res.BaseAmount = clamped
	res.Clamped = !clamped.Equal(raw)
	if res.Clamped {
		res.Reason = fmt.Sprintf("clamped from %s to rule range [%s, %s]",
			raw, rule.BaseFloor, rule.BaseCeiling)
	}

	stored, err := s.insuranceRepo.UpsertBase(ctx, insurance.ContributionBase{
		EmployeeID:      employeeID,
		InsuranceTypeID: insuranceTypeID,
		PeriodID:        periodID,
		BaseAmount:      clamped,
	})
	if err != nil {
		return res, err
	}

	s.publisher.TryPublish(ctx, messaging.EventBaseUpserted,
		messaging.ChangeContext{PeriodID: periodID, EmployeeID: employeeID})

	s.logger.Debug("contribution base resolved",
		"employee_id", employeeID,
		"insurance_type", insuranceType.Key,
		"period_id", periodID,
		"base_amount", stored.BaseAmount.String(),
		"clamped", res.Clamped,
	)

	return res, nil
}

// BatchResolve resolves bases for every active insurance type across the
// given employees. Per-entry failures are recorded in the resolution's
// Reason and never abort the batch.
func (s *ResolverService) BatchResolve(
	ctx context.Context,
	employeeIDs []string,
	periodID string,
) (map[string][]Resolution, error) {
	types, err := s.insuranceRepo.ListActiveTypes(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]Resolution, len(employeeIDs))
	for _, employeeID := range employeeIDs {
		resolutions := make([]Resolution, 0, len(types))
		for _, it := range types {
			res, err := s.Resolve(ctx, employeeID, it.ID, periodID, nil)
			if err != nil {
				res.EmployeeID = employeeID
				res.InsuranceTypeID = it.ID
				res.InsuranceType = it.Key
				res.Applicable = false
				res.Failed = true
				res.Reason = err.Error()
			}
			resolutions = append(resolutions, res)
		}
		out[employeeID] = resolutions
	}

	return out, nil
}

// Validate checks a proposed base set against the employee's category
// rules. Floor/ceiling violations and unknown or inapplicable types are
// errors; deviation beyond 2x or below 0.5x of the employee's latest
// gross pay is a warning only.
func (s *ResolverService) Validate(
	ctx context.Context,
	employeeID, periodID string,
	proposed []ProposedBase,
) (ValidationResult, error) {
	result := ValidationResult{IsValid: true}

	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return result, err
	}

	cat, err := s.assignmentRepo.GetCategoryAssignment(ctx, employeeID, periodID)
	if err != nil {
		return result, fmt.Errorf("employee %s has no category for the period: %w", employeeID, err)
	}

	var gross decimal.Decimal
	grossKnown := false
	if totals, err := s.payrollRepo.GetLatestGrossPay(ctx, employeeID); err == nil {
		gross = totals.GrossPay
		grossKnown = gross.IsPositive()
	} else if !errors.Is(err, payroll.ErrNoGrossPayHistory) {
		return result, err
	}

	seen := make(map[string]bool, len(proposed))
	for _, pb := range proposed {
		seen[pb.InsuranceTypeID] = true

		insuranceType, err := s.insuranceRepo.GetTypeByID(ctx, pb.InsuranceTypeID)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("unknown insurance type %s", pb.InsuranceTypeID))
			continue
		}

		rule, err := s.insuranceRepo.GetRule(ctx, cat.CategoryID, pb.InsuranceTypeID, p.ReferenceDate())
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: no rule effective for category", insuranceType.Key))
			continue
		}
		if !rule.IsApplicable {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: not applicable for employee category", insuranceType.Key))
			continue
		}

		if pb.BaseAmount.LessThan(rule.BaseFloor) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: base %s below floor %s", insuranceType.Key, pb.BaseAmount, rule.BaseFloor))
		}
		if pb.BaseAmount.GreaterThan(rule.BaseCeiling) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s: base %s above ceiling %s", insuranceType.Key, pb.BaseAmount, rule.BaseCeiling))
		}

		if grossKnown {
			if pb.BaseAmount.GreaterThan(gross.Mul(deviationHigh)) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s: base %s exceeds twice the latest gross pay %s", insuranceType.Key, pb.BaseAmount, gross))
			} else if pb.BaseAmount.LessThan(gross.Mul(deviationLow)) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("%s: base %s is below half the latest gross pay %s", insuranceType.Key, pb.BaseAmount, gross))
			}
		}
	}

	// Mandatory coverage: every type applicable under the category rules
	// must appear in the proposal.
	rules, err := s.insuranceRepo.ListRulesForCategory(ctx, cat.CategoryID, p.ReferenceDate())
	if err != nil {
		return result, err
	}
	for _, r := range rules {
		if r.IsApplicable && !seen[r.InsuranceTypeID] {
			result.Errors = append(result.Errors,
				fmt.Sprintf("missing base for mandatory insurance type %s", r.InsuranceTypeID))
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result, nil
}

// Contribution is one insurance type's computed employee deduction for a
// period: the stored base times the rule's employee rate.
type Contribution struct {
	InsuranceTypeID string          `json:"insurance_type_id"`
	InsuranceType   string          `json:"insurance_type,omitempty"`
	BaseAmount      decimal.Decimal `json:"base_amount"`
	EmployeeRate    decimal.Decimal `json:"employee_rate"`
	EmployerRate    decimal.Decimal `json:"employer_rate"`
	EmployeeAmount  decimal.Decimal `json:"employee_amount"`
	EmployerAmount  decimal.Decimal `json:"employer_amount"`
}

// EmployeeContributions computes the deduction amounts from the stored
// bases and the rules effective for the employee's category. Amounts are
// rounded to two decimal places.
func (s *ResolverService) EmployeeContributions(ctx context.Context, employeeID, periodID string) ([]Contribution, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}

	cat, err := s.assignmentRepo.GetCategoryAssignment(ctx, employeeID, periodID)
	if err != nil {
		return nil, fmt.Errorf("employee %s has no category for the period: %w", employeeID, err)
	}

	bases, err := s.insuranceRepo.ListBases(ctx, employeeID, periodID)
	if err != nil {
		return nil, err
	}

	out := make([]Contribution, 0, len(bases))
	for _, b := range bases {
		rule, err := s.insuranceRepo.GetRule(ctx, cat.CategoryID, b.InsuranceTypeID, p.ReferenceDate())
		if err != nil {
			if errors.Is(err, insurance.ErrRuleNotFound) {
				continue
			}
			return nil, err
		}
		if !rule.IsApplicable {
			continue
		}
		c := Contribution{
			InsuranceTypeID: b.InsuranceTypeID,
			BaseAmount:      b.BaseAmount,
			EmployeeRate:    rule.EmployeeRate,
			EmployerRate:    rule.EmployerRate,
			EmployeeAmount:  b.BaseAmount.Mul(rule.EmployeeRate).Round(2),
			EmployerAmount:  b.BaseAmount.Mul(rule.EmployerRate).Round(2),
		}
		if b.InsuranceTypeKey != nil {
			c.InsuranceType = *b.InsuranceTypeKey
		}
		out = append(out, c)
	}
	return out, nil
}

// ListTypes returns the active insurance types for reference screens.
func (s *ResolverService) ListTypes(ctx context.Context) ([]insurance.InsuranceType, error) {
	return s.insuranceRepo.ListActiveTypes(ctx)
}

// ListRules returns the rule set effective for a category at a period's
// reference date, for the configuration and review screens.
func (s *ResolverService) ListRules(ctx context.Context, categoryID, periodID string) ([]insurance.CategoryInsuranceRule, error) {
	p, err := s.periodRepo.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	return s.insuranceRepo.ListRulesForCategory(ctx, categoryID, p.ReferenceDate())
}

// ListBases returns the stored bases for one employee and period.
func (s *ResolverService) ListBases(ctx context.Context, employeeID, periodID string) ([]insurance.ContributionBase, error) {
	return s.insuranceRepo.ListBases(ctx, employeeID, periodID)
}

// UpsertManual stores a caller-specified base after strict rule checks.
// Unlike Resolve it rejects out-of-range amounts instead of clamping.
func (s *ResolverService) UpsertManual(ctx context.Context, req insurance.UpsertBaseRequest) (insurance.ContributionBase, error) {
	if err := req.Validate(); err != nil {
		return insurance.ContributionBase{}, err
	}

	p, err := s.periodRepo.GetByID(ctx, req.PeriodID)
	if err != nil {
		return insurance.ContributionBase{}, err
	}

	cat, err := s.assignmentRepo.GetCategoryAssignment(ctx, req.EmployeeID, req.PeriodID)
	if err != nil {
		return insurance.ContributionBase{}, fmt.Errorf("employee %s has no category for the period: %w", req.EmployeeID, err)
	}

	rule, err := s.insuranceRepo.GetRule(ctx, cat.CategoryID, req.InsuranceTypeID, p.ReferenceDate())
	if err != nil {
		return insurance.ContributionBase{}, err
	}
	if !rule.IsApplicable {
		return insurance.ContributionBase{}, insurance.ErrTypeNotApplicable
	}
	if req.BaseAmount.LessThan(rule.BaseFloor) {
		return insurance.ContributionBase{}, insurance.ErrBaseBelowFloor
	}
	if req.BaseAmount.GreaterThan(rule.BaseCeiling) {
		return insurance.ContributionBase{}, insurance.ErrBaseAboveCeiling
	}

	stored, err := s.insuranceRepo.UpsertBase(ctx, insurance.ContributionBase{
		EmployeeID:      req.EmployeeID,
		InsuranceTypeID: req.InsuranceTypeID,
		PeriodID:        req.PeriodID,
		BaseAmount:      req.BaseAmount,
	})
	if err != nil {
		return insurance.ContributionBase{}, err
	}

	s.publisher.TryPublish(ctx, messaging.EventBaseUpserted,
		messaging.ChangeContext{PeriodID: req.PeriodID, EmployeeID: req.EmployeeID})

	return stored, nil
}
