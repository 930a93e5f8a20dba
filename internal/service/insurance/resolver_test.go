package insurance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	"github.com/salarysys/payroll-backend-go/internal/domain/insurance"
	"github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	"github.com/salarysys/payroll-backend-go/internal/domain/period"
	"github.com/salarysys/payroll-backend-go/internal/pkg/messaging"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ===== IN-MEMORY FAKES =====

type fakeInsuranceRepo struct {
	types  []insurance.InsuranceType
	rules  map[string]insurance.CategoryInsuranceRule // categoryID+typeID
	bases  map[string]insurance.ContributionBase      // employeeID+typeID+periodID
	priors map[string]insurance.ContributionBase      // employeeID+typeID
}

func newFakeInsuranceRepo() *fakeInsuranceRepo {
	return &fakeInsuranceRepo{
		rules:  make(map[string]insurance.CategoryInsuranceRule),
		bases:  make(map[string]insurance.ContributionBase),
		priors: make(map[string]insurance.ContributionBase),
	}
}

func (f *fakeInsuranceRepo) ListActiveTypes(ctx context.Context) ([]insurance.InsuranceType, error) {
	return f.types, nil
}

func (f *fakeInsuranceRepo) GetTypeByID(ctx context.Context, id string) (insurance.InsuranceType, error) {
	for _, t := range f.types {
		if t.ID == id {
			return t, nil
		}
	}
	return insurance.InsuranceType{}, insurance.ErrInsuranceTypeNotFound
}

func (f *fakeInsuranceRepo) GetRule(ctx context.Context, categoryID, insuranceTypeID string, refDate time.Time) (insurance.CategoryInsuranceRule, error) {
	r, ok := f.rules[categoryID+"/"+insuranceTypeID]
	if !ok || !r.CoversDate(refDate) {
		return insurance.CategoryInsuranceRule{}, insurance.ErrRuleNotFound
	}
	return r, nil
}

func (f *fakeInsuranceRepo) ListRulesForCategory(ctx context.Context, categoryID string, refDate time.Time) ([]insurance.CategoryInsuranceRule, error) {
	var out []insurance.CategoryInsuranceRule
	for key, r := range f.rules {
		if len(key) > len(categoryID) && key[:len(categoryID)] == categoryID && r.CoversDate(refDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeInsuranceRepo) UpsertBase(ctx context.Context, b insurance.ContributionBase) (insurance.ContributionBase, error) {
	f.bases[b.EmployeeID+"/"+b.InsuranceTypeID+"/"+b.PeriodID] = b
	return b, nil
}

func (f *fakeInsuranceRepo) ListBases(ctx context.Context, employeeID, periodID string) ([]insurance.ContributionBase, error) {
	var out []insurance.ContributionBase
	for _, b := range f.bases {
		if b.EmployeeID == employeeID && b.PeriodID == periodID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeInsuranceRepo) GetPriorBase(ctx context.Context, employeeID, insuranceTypeID, periodID string) (insurance.ContributionBase, error) {
	b, ok := f.priors[employeeID+"/"+insuranceTypeID]
	if !ok {
		return insurance.ContributionBase{}, insurance.ErrBaseNotFound
	}
	return b, nil
}

type fakeAssignmentRepo struct {
	categories map[string]assignment.CategoryAssignment // employeeID+periodID
}

func (f *fakeAssignmentRepo) UpsertCategoryAssignment(ctx context.Context, a assignment.CategoryAssignment) (assignment.CategoryAssignment, error) {
	f.categories[a.EmployeeID+"/"+a.PeriodID] = a
	return a, nil
}

func (f *fakeAssignmentRepo) GetCategoryAssignment(ctx context.Context, employeeID, periodID string) (assignment.CategoryAssignment, error) {
	a, ok := f.categories[employeeID+"/"+periodID]
	if !ok {
		return assignment.CategoryAssignment{}, assignment.ErrCategoryAssignmentNotFound
	}
	return a, nil
}

func (f *fakeAssignmentRepo) ListCategoryAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]assignment.CategoryAssignment, error) {
	return nil, nil
}

func (f *fakeAssignmentRepo) UpsertJobAssignment(ctx context.Context, a assignment.JobAssignment) (assignment.JobAssignment, error) {
	return a, nil
}

func (f *fakeAssignmentRepo) GetJobAssignment(ctx context.Context, employeeID, periodID string) (assignment.JobAssignment, error) {
	return assignment.JobAssignment{}, assignment.ErrJobAssignmentNotFound
}

func (f *fakeAssignmentRepo) ListJobAssignments(ctx context.Context, periodID string, employeeIDs []string) ([]assignment.JobAssignment, error) {
	return nil, nil
}

func (f *fakeAssignmentRepo) GetProgress(ctx context.Context, periodID string, employeeIDs []string) (assignment.Progress, error) {
	return assignment.Progress{}, nil
}

type fakePeriodRepo struct {
	periods map[string]period.Period
}

func (f *fakePeriodRepo) Create(ctx context.Context, p period.Period) (period.Period, error) {
	f.periods[p.ID] = p
	return p, nil
}

func (f *fakePeriodRepo) GetByID(ctx context.Context, id string) (period.Period, error) {
	p, ok := f.periods[id]
	if !ok {
		return period.Period{}, period.ErrPeriodNotFound
	}
	return p, nil
}

func (f *fakePeriodRepo) GetByYearMonth(ctx context.Context, year, month int) (period.Period, error) {
	return period.Period{}, period.ErrPeriodNotFound
}

func (f *fakePeriodRepo) List(ctx context.Context) ([]period.Period, error) { return nil, nil }

func (f *fakePeriodRepo) UpdateStatus(ctx context.Context, id string, status period.PeriodStatus) (period.Period, error) {
	p := f.periods[id]
	p.Status = status
	f.periods[id] = p
	return p, nil
}

func (f *fakePeriodRepo) HasNonDraftPayrolls(ctx context.Context, id string) (bool, error) {
	return false, nil
}

type fakePayrollRepo struct {
	payroll.PayrollRepository
	latestGross map[string]decimal.Decimal
}

func (f *fakePayrollRepo) GetLatestGrossPay(ctx context.Context, employeeID string) (payroll.Totals, error) {
	g, ok := f.latestGross[employeeID]
	if !ok {
		return payroll.Totals{}, payroll.ErrNoGrossPayHistory
	}
	return payroll.Totals{GrossPay: g}, nil
}

// ===== FIXTURE =====

type resolverFixture struct {
	svc   *ResolverService
	ins   *fakeInsuranceRepo
	asg   *fakeAssignmentRepo
	per   *fakePeriodRepo
	pay   *fakePayrollRepo
}

func newResolverFixture() *resolverFixture {
	ins := newFakeInsuranceRepo()
	ins.types = []insurance.InsuranceType{
		{ID: "type-pension", Key: "pension", Name: "Pension", IsActive: true},
		{ID: "type-medical", Key: "medical", Name: "Medical", IsActive: true},
	}

	asg := &fakeAssignmentRepo{categories: map[string]assignment.CategoryAssignment{
		"emp-1/period-1": {EmployeeID: "emp-1", CategoryID: "cat-regular", PeriodID: "period-1"},
		"emp-2/period-1": {EmployeeID: "emp-2", CategoryID: "cat-regular", PeriodID: "period-1"},
	}}

	per := &fakePeriodRepo{periods: map[string]period.Period{
		"period-1": {
			ID: "period-1", Year: 2025, Month: 6,
			StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			Status:    period.PeriodStatusOpen,
		},
	}}

	pay := &fakePayrollRepo{latestGross: map[string]decimal.Decimal{}}

	effective := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ins.rules["cat-regular/type-pension"] = insurance.CategoryInsuranceRule{
		CategoryID: "cat-regular", InsuranceTypeID: "type-pension",
		IsApplicable: true,
		EmployeeRate: d("0.08"), EmployerRate: d("0.16"),
		BaseFloor: d("3000"), BaseCeiling: d("30000"),
		EffectiveDate: effective,
	}
	ins.rules["cat-regular/type-medical"] = insurance.CategoryInsuranceRule{
		CategoryID: "cat-regular", InsuranceTypeID: "type-medical",
		IsApplicable: true,
		EmployeeRate: d("0.02"), EmployerRate: d("0.095"),
		BaseFloor: d("3000"), BaseCeiling: d("30000"),
		EffectiveDate: effective,
	}

	svc := NewResolverService(ins, asg, per, pay, messaging.NopPublisher{}, slog.Default())
	return &resolverFixture{svc: svc, ins: ins, asg: asg, per: per, pay: pay}
}

// ===== RESOLVE TESTS =====

func TestResolverService_Resolve_CandidateClampedToCeiling(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	candidate := d("40000")
	res, err := fx.svc.Resolve(ctx, "emp-1", "type-pension", "period-1", &candidate)

	require.NoError(t, err)
	assert.True(t, res.Applicable)
	assert.True(t, d("30000").Equal(res.BaseAmount), "base = %s", res.BaseAmount)
	assert.True(t, res.Clamped)

	stored := fx.ins.bases["emp-1/type-pension/period-1"]
	assert.True(t, d("30000").Equal(stored.BaseAmount))
}

func TestResolverService_Resolve_NotApplicableWritesNothing(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	rule := fx.ins.rules["cat-regular/type-medical"]
	rule.IsApplicable = false
	fx.ins.rules["cat-regular/type-medical"] = rule

	res, err := fx.svc.Resolve(ctx, "emp-1", "type-medical", "period-1", nil)

	require.NoError(t, err)
	assert.False(t, res.Applicable)
	assert.NotEmpty(t, res.Reason)
	assert.Empty(t, fx.ins.bases)
}

func TestResolverService_Resolve_FallsBackToPriorBase(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	fx.ins.priors["emp-1/type-pension"] = insurance.ContributionBase{
		EmployeeID: "emp-1", InsuranceTypeID: "type-pension",
		BaseAmount: d("12000"),
	}
	fx.pay.latestGross["emp-1"] = d("99999") // must lose to the prior base

	res, err := fx.svc.Resolve(ctx, "emp-1", "type-pension", "period-1", nil)

	require.NoError(t, err)
	assert.True(t, d("12000").Equal(res.BaseAmount), "base = %s", res.BaseAmount)
	assert.False(t, res.Clamped)
}

func TestResolverService_Resolve_FallsBackToLatestGross(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	fx.pay.latestGross["emp-1"] = d("15000")

	res, err := fx.svc.Resolve(ctx, "emp-1", "type-pension", "period-1", nil)

	require.NoError(t, err)
	assert.True(t, d("15000").Equal(res.BaseAmount), "base = %s", res.BaseAmount)
}

func TestResolverService_Resolve_FallsBackToFloor(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	// No candidate, no prior base, no gross history.
	res, err := fx.svc.Resolve(ctx, "emp-1", "type-pension", "period-1", nil)

	require.NoError(t, err)
	assert.True(t, d("3000").Equal(res.BaseAmount), "base = %s", res.BaseAmount)
}

func TestResolverService_Resolve_NoRuleForDateNotApplicable(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	rule := fx.ins.rules["cat-regular/type-pension"]
	end := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rule.EndDate = &end // slice ends before the June period
	fx.ins.rules["cat-regular/type-pension"] = rule

	// A type with no effective rule is skipped, not an error.
	res, err := fx.svc.Resolve(ctx, "emp-1", "type-pension", "period-1", nil)

	require.NoError(t, err)
	assert.False(t, res.Applicable)
	assert.False(t, res.Failed)
	assert.NotEmpty(t, res.Reason)
	assert.Empty(t, fx.ins.bases, "no base may be written without a rule")
}

func TestResolverService_Resolve_NoCategoryAssignment(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	_, err := fx.svc.Resolve(ctx, "emp-unassigned", "type-pension", "period-1", nil)
	assert.ErrorIs(t, err, assignment.ErrCategoryAssignmentNotFound)
}

// ===== BATCH RESOLVE TESTS =====

func TestResolverService_BatchResolve_PerEntryFailureDoesNotAbort(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	// emp-2 has a category but emp-3 does not; emp-3's entries must fail
	// individually while emp-2's resolve.
	out, err := fx.svc.BatchResolve(ctx, []string{"emp-2", "emp-3"}, "period-1")

	require.NoError(t, err)
	require.Len(t, out, 2)

	for _, res := range out["emp-2"] {
		assert.True(t, res.Applicable)
		assert.True(t, d("3000").Equal(res.BaseAmount))
	}
	for _, res := range out["emp-3"] {
		assert.False(t, res.Applicable)
		assert.True(t, res.Failed)
		assert.NotEmpty(t, res.Reason)
	}
}

func TestResolverService_BatchResolve_MissingRuleIsSkipNotFailure(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	delete(fx.ins.rules, "cat-regular/type-medical")

	out, err := fx.svc.BatchResolve(ctx, []string{"emp-1"}, "period-1")

	require.NoError(t, err)
	require.Len(t, out["emp-1"], 2)
	for _, res := range out["emp-1"] {
		assert.False(t, res.Failed, "type %s", res.InsuranceTypeID)
		if res.InsuranceTypeID == "type-medical" {
			assert.False(t, res.Applicable)
		} else {
			assert.True(t, res.Applicable)
		}
	}
	assert.Len(t, fx.ins.bases, 1, "only the ruled type writes a base")
}

func TestResolverService_BatchResolve_Idempotent(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	first, err := fx.svc.BatchResolve(ctx, []string{"emp-1"}, "period-1")
	require.NoError(t, err)
	second, err := fx.svc.BatchResolve(ctx, []string{"emp-1"}, "period-1")
	require.NoError(t, err)

	assert.Equal(t, len(first["emp-1"]), len(second["emp-1"]))
	// Re-running must not duplicate rows: still one base per type.
	assert.Len(t, fx.ins.bases, 2)
}

// ===== VALIDATE TESTS =====

func TestResolverService_Validate_FloorAndCeilingViolations(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	result, err := fx.svc.Validate(ctx, "emp-1", "period-1", []ProposedBase{
		{InsuranceTypeID: "type-pension", BaseAmount: d("2000")},  // below floor
		{InsuranceTypeID: "type-medical", BaseAmount: d("50000")}, // above ceiling
	})

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 2)
}

func TestResolverService_Validate_GrossDeviationIsWarningOnly(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	fx.pay.latestGross["emp-1"] = d("10000")

	result, err := fx.svc.Validate(ctx, "emp-1", "period-1", []ProposedBase{
		{InsuranceTypeID: "type-pension", BaseAmount: d("25000")}, // > 2x gross
		{InsuranceTypeID: "type-medical", BaseAmount: d("4000")},  // < 0.5x gross
	})

	require.NoError(t, err)
	assert.True(t, result.IsValid, "deviation is a warning, not an error")
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Warnings, 2)
}

func TestResolverService_Validate_MissingMandatoryType(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	result, err := fx.svc.Validate(ctx, "emp-1", "period-1", []ProposedBase{
		{InsuranceTypeID: "type-pension", BaseAmount: d("10000")},
	})

	require.NoError(t, err)
	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "type-medical")
}

// ===== MANUAL UPSERT TESTS =====

func TestResolverService_UpsertManual_RejectsOutOfRange(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	_, err := fx.svc.UpsertManual(ctx, insurance.UpsertBaseRequest{
		EmployeeID: "emp-1", InsuranceTypeID: "type-pension",
		PeriodID: "period-1", BaseAmount: d("1000"),
	})
	assert.ErrorIs(t, err, insurance.ErrBaseBelowFloor)

	_, err = fx.svc.UpsertManual(ctx, insurance.UpsertBaseRequest{
		EmployeeID: "emp-1", InsuranceTypeID: "type-pension",
		PeriodID: "period-1", BaseAmount: d("99999"),
	})
	assert.ErrorIs(t, err, insurance.ErrBaseAboveCeiling)
	assert.Empty(t, fx.ins.bases)
}

func TestResolverService_UpsertManual_Success(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	stored, err := fx.svc.UpsertManual(ctx, insurance.UpsertBaseRequest{
		EmployeeID: "emp-1", InsuranceTypeID: "type-pension",
		PeriodID: "period-1", BaseAmount: d("20000"),
	})

	require.NoError(t, err)
	assert.True(t, d("20000").Equal(stored.BaseAmount))
}

func TestResolverService_ListRules_EffectiveForPeriod(t *testing.T) {
	t.Parallel()
	fx := newResolverFixture()
	ctx := context.Background()

	rules, err := fx.svc.ListRules(ctx, "cat-regular", "period-1")

	require.NoError(t, err)
	require.Len(t, rules, 2)
	for _, r := range rules {
		assert.Equal(t, "cat-regular", r.CategoryID)
	}
}
