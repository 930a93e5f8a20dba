package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domassignment "github.com/salarysys/payroll-backend-go/internal/domain/assignment"
	dompayroll "github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	assignmentsvc "github.com/salarysys/payroll-backend-go/internal/service/assignment"
	insurancesvc "github.com/salarysys/payroll-backend-go/internal/service/insurance"
	payrollsvc "github.com/salarysys/payroll-backend-go/internal/service/payroll"
	"github.com/salarysys/payroll-backend-go/internal/service/tax"
	"github.com/shopspring/decimal"
)

// Stage names reported in PipelineResult.
const (
	StageCategories = "categories"
	StagePositions  = "positions"
	StageBases      = "contribution_bases"
	StagePayrolls   = "payrolls"
)

// ItemInput is one earning line to record for an employee.
type ItemInput struct {
	ComponentID string          `json:"component_id"`
	Amount      decimal.Decimal `json:"amount"`
}

// EmployeeInput carries one employee's pipeline parameters.
type EmployeeInput struct {
	EmployeeID           string          `json:"employee_id"`
	CategoryID           string          `json:"category_id"`
	PositionID           string          `json:"position_id"`
	DepartmentID         string          `json:"department_id"`
	Earnings             []ItemInput     `json:"earnings"`
	SpecialDeductions    decimal.Decimal `json:"special_deductions"`
	AdditionalDeductions decimal.Decimal `json:"additional_deductions"`
	PriorTaxableIncome   decimal.Decimal `json:"prior_taxable_income"`
	PriorTaxWithheld     decimal.Decimal `json:"prior_tax_withheld"`
}

// PipelineInput is the full-workflow request. Component IDs map computed
// amounts onto salary components: insurance deductions per insurance type
// plus the income tax component.
type PipelineInput struct {
	PeriodID            string            `json:"period_id"`
	Employees           []EmployeeInput   `json:"employees"`
	InsuranceComponents map[string]string `json:"insurance_components"` // insurance type id -> component id
	TaxComponentID      string            `json:"tax_component_id"`
}

// PipelineResult reports per-stage outcomes. Stages after an aborted one
// are absent from Stages.
type PipelineResult struct {
	Stages       map[string]BatchResult `json:"stages"`
	AbortedAfter string                 `json:"aborted_after,omitempty"`
}

// Pipeline runs the end-to-end payroll creation flow: batch category
// assignment, batch position assignment, contribution base resolution,
// then payroll creation with items, tax and totals. A stage whose every
// item fails aborts the remaining stages. Committed work is not rolled
// back; each stage upserts, so a re-run converges.
type Pipeline struct {
	assignments *assignmentsvc.AssignmentService
	resolver    *insurancesvc.ResolverService
	payrolls    *payrollsvc.PayrollService
	workerLimit int
	logger      *slog.Logger
}

func NewPipeline(
	assignments *assignmentsvc.AssignmentService,
	resolver *insurancesvc.ResolverService,
	payrolls *payrollsvc.PayrollService,
	workerLimit int,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		assignments: assignments,
		resolver:    resolver,
		payrolls:    payrolls,
		workerLimit: workerLimit,
		logger:      logger,
	}
}

func employeeID(e EmployeeInput) string { return e.EmployeeID }

// RunFull executes all four stages in order.
func (p *Pipeline) RunFull(ctx context.Context, input PipelineInput) PipelineResult {
	result := PipelineResult{Stages: make(map[string]BatchResult)}

	stages := []struct {
		name string
		op   func(context.Context, EmployeeInput) error
	}{
		{StageCategories, func(ctx context.Context, e EmployeeInput) error {
			_, err := p.assignments.AssignCategory(ctx, domassignment.AssignCategoryRequest{
				EmployeeID: e.EmployeeID,
				CategoryID: e.CategoryID,
				PeriodID:   input.PeriodID,
			})
			return err
		}},
		{StagePositions, func(ctx context.Context, e EmployeeInput) error {
			_, err := p.assignments.AssignPosition(ctx, domassignment.AssignPositionRequest{
				EmployeeID:   e.EmployeeID,
				PositionID:   e.PositionID,
				DepartmentID: e.DepartmentID,
				PeriodID:     input.PeriodID,
			})
			return err
		}},
		{StageBases, func(ctx context.Context, e EmployeeInput) error {
			return p.resolveBases(ctx, e.EmployeeID, input.PeriodID)
		}},
		{StagePayrolls, func(ctx context.Context, e EmployeeInput) error {
			return p.createPayroll(ctx, input, e)
		}},
	}

	for _, stage := range stages {
		br := ExecuteBatch(ctx, input.Employees, p.workerLimit, employeeID, stage.op)
		result.Stages[stage.name] = br

		p.logger.Info("pipeline stage finished",
			"stage", stage.name,
			"succeeded", br.SuccessCount,
			"failed", br.FailedCount,
		)

		if br.AllFailed() {
			result.AbortedAfter = stage.name
			break
		}
	}

	return result
}

// resolveBases runs the derivation chain for every active insurance type;
// a type-level failure fails the employee for this stage. Types that are
// cleanly not applicable are skipped, not failed.
func (p *Pipeline) resolveBases(ctx context.Context, employeeID, periodID string) error {
	out, err := p.resolver.BatchResolve(ctx, []string{employeeID}, periodID)
	if err != nil {
		return err
	}
	for _, res := range out[employeeID] {
		if res.Failed {
			return errors.New(res.Reason)
		}
	}
	return nil
}

// createPayroll creates (or reuses) the employee's payroll and records
// earnings, insurance deductions and income tax, leaving the record
// calculated. Already-present items are kept, so a re-run converges on
// the same record instead of duplicating lines.
func (p *Pipeline) createPayroll(ctx context.Context, input PipelineInput, e EmployeeInput) error {
	rec, err := p.payrolls.GetOrCreate(ctx, e.EmployeeID, input.PeriodID)
	if err != nil {
		return err
	}

	switch rec.Status {
	case dompayroll.PayrollStatusDraft:
		if _, err := p.payrolls.UpdateStatus(ctx, dompayroll.UpdateStatusRequest{
			PayrollID: rec.ID, Status: string(dompayroll.PayrollStatusCalculating),
		}); err != nil {
			return err
		}
	case dompayroll.PayrollStatusCalculating:
		// resuming an interrupted run
	default:
		// already calculated or further along; nothing to redo
		return nil
	}

	gross := decimal.Zero
	for _, earning := range e.Earnings {
		gross = gross.Add(earning.Amount)
		if err := p.addItem(ctx, rec.ID, earning.ComponentID, earning.Amount, nil); err != nil {
			return fmt.Errorf("earning %s: %w", earning.ComponentID, err)
		}
	}

	contributions, err := p.resolver.EmployeeContributions(ctx, e.EmployeeID, input.PeriodID)
	if err != nil {
		return err
	}
	preTax := decimal.Zero
	for _, c := range contributions {
		preTax = preTax.Add(c.EmployeeAmount)
		componentID, ok := input.InsuranceComponents[c.InsuranceTypeID]
		if !ok {
			return fmt.Errorf("no salary component mapped for insurance type %s", c.InsuranceTypeID)
		}
		note := fmt.Sprintf("base %s x rate %s", c.BaseAmount, c.EmployeeRate)
		if err := p.addItem(ctx, rec.ID, componentID, c.EmployeeAmount, &note); err != nil {
			return fmt.Errorf("insurance %s: %w", c.InsuranceType, err)
		}
	}

	taxResult := tax.Compute(tax.Input{
		GrossIncome:          gross,
		PreTaxDeductions:     preTax,
		SpecialDeductions:    e.SpecialDeductions,
		AdditionalDeductions: e.AdditionalDeductions,
		PriorTaxableIncome:   e.PriorTaxableIncome,
		PriorTaxWithheld:     e.PriorTaxWithheld,
		PeriodKind:           tax.PeriodMonthly,
	})
	if taxResult.IncrementalTax.IsPositive() {
		note := fmt.Sprintf("cumulative taxable %s", taxResult.AccumTaxable)
		if err := p.addItem(ctx, rec.ID, input.TaxComponentID, taxResult.IncrementalTax, &note); err != nil {
			return fmt.Errorf("income tax: %w", err)
		}
	}

	if _, err := p.payrolls.UpdateStatus(ctx, dompayroll.UpdateStatusRequest{
		PayrollID: rec.ID, Status: string(dompayroll.PayrollStatusCalculated),
	}); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) addItem(ctx context.Context, payrollID, componentID string, amount decimal.Decimal, notes *string) error {
	_, err := p.payrolls.AddItem(ctx, dompayroll.AddItemRequest{
		PayrollID:   payrollID,
		ComponentID: componentID,
		Amount:      amount,
		Notes:       notes,
	})
	if errors.Is(err, dompayroll.ErrItemAlreadyExists) {
		return nil
	}
	return err
}
