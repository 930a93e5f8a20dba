// Package tax implements the PRC individual income tax calculation for
// wages and salaries, including the cumulative withholding method used
// across payroll periods within a tax year.
package tax

import (
	"github.com/shopspring/decimal"
)

// PeriodKind selects the bracket table and standard threshold.
type PeriodKind string

const (
	PeriodMonthly PeriodKind = "monthly"
	PeriodAnnual  PeriodKind = "annual"
)

// Bracket is one progressive band. Membership is (Min, Max]; a zero Max
// means unbounded.
type Bracket struct {
	Min            decimal.Decimal
	Max            decimal.Decimal
	Rate           decimal.Decimal
	QuickDeduction decimal.Decimal
}

var (
	thresholdMonthly = decimal.NewFromInt(5000)
	thresholdAnnual  = decimal.NewFromInt(60000)

	// Annual comprehensive income table per the IIT law. The monthly table
	// is this table divided by 12, quick deductions included.
	annualBrackets = buildBrackets([]bracketSpec{
		{36000, "0.03", 0},
		{144000, "0.10", 2520},
		{300000, "0.20", 16920},
		{420000, "0.25", 31920},
		{660000, "0.30", 52920},
		{960000, "0.35", 85920},
		{0, "0.45", 181920},
	})

	monthlyBrackets = divideBrackets(annualBrackets, 12)
)

type bracketSpec struct {
	max   int64
	rate  string
	quick int64
}

func buildBrackets(specs []bracketSpec) []Bracket {
	brackets := make([]Bracket, 0, len(specs))
	min := decimal.Zero
	for _, s := range specs {
		b := Bracket{
			Min:            min,
			Rate:           decimal.RequireFromString(s.rate),
			QuickDeduction: decimal.NewFromInt(s.quick),
		}
		if s.max > 0 {
			b.Max = decimal.NewFromInt(s.max)
			min = b.Max
		}
		brackets = append(brackets, b)
	}
	return brackets
}

func divideBrackets(annual []Bracket, months int64) []Bracket {
	d := decimal.NewFromInt(months)
	out := make([]Bracket, len(annual))
	for i, b := range annual {
		out[i] = Bracket{
			Min:            b.Min.Div(d),
			Rate:           b.Rate,
			QuickDeduction: b.QuickDeduction.Div(d),
		}
		if !b.Max.IsZero() {
			out[i].Max = b.Max.Div(d)
		}
	}
	return out
}

// Contains reports whether amount falls in this band, (Min, Max].
func (b Bracket) Contains(amount decimal.Decimal) bool {
	if amount.LessThanOrEqual(b.Min) {
		return false
	}
	if b.Max.IsZero() {
		return true
	}
	return amount.LessThanOrEqual(b.Max)
}

// Input carries everything the calculation needs. Prior accumulators are
// the year-to-date taxable income and withheld tax from earlier periods;
// zero for the first period of the year.
type Input struct {
	GrossIncome          decimal.Decimal
	PreTaxDeductions     decimal.Decimal
	SpecialDeductions    decimal.Decimal
	AdditionalDeductions decimal.Decimal
	PriorTaxableIncome   decimal.Decimal
	PriorTaxWithheld     decimal.Decimal
	PeriodKind           PeriodKind
}

// Result carries the incremental tax for this period plus the running
// accumulators to thread into the next period's Input.
type Result struct {
	TaxableIncome    decimal.Decimal
	AccumTaxable     decimal.Decimal
	TaxDue           decimal.Decimal
	IncrementalTax   decimal.Decimal
	EffectiveRate    decimal.Decimal
	BracketIndex     int
	AccumTaxWithheld decimal.Decimal
}

func tableFor(kind PeriodKind) ([]Bracket, decimal.Decimal) {
	if kind == PeriodAnnual {
		return annualBrackets, thresholdAnnual
	}
	return monthlyBrackets, thresholdMonthly
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Compute runs one period of the cumulative withholding method. Interior
// arithmetic stays exact; only the reported amounts are rounded, half-up
// to two decimal places.
func Compute(in Input) Result {
	brackets, threshold := tableFor(in.PeriodKind)

	taxable := in.GrossIncome.
		Sub(in.PreTaxDeductions).
		Sub(in.SpecialDeductions).
		Sub(in.AdditionalDeductions).
		Sub(threshold)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}

	accum := in.PriorTaxableIncome.Add(taxable)

	var due decimal.Decimal
	idx := -1
	for i, b := range brackets {
		if b.Contains(accum) {
			due = accum.Mul(b.Rate).Sub(b.QuickDeduction)
			idx = i
			break
		}
	}
	if due.IsNegative() {
		due = decimal.Zero
	}

	incremental := due.Sub(in.PriorTaxWithheld)
	if incremental.IsNegative() {
		// Over-withheld in earlier periods; nothing refunded mid-year.
		incremental = decimal.Zero
	}

	rate := decimal.Zero
	if accum.IsPositive() {
		rate = due.Div(accum)
	}

	return Result{
		TaxableIncome:    round2(taxable),
		AccumTaxable:     round2(accum),
		TaxDue:           round2(due),
		IncrementalTax:   round2(incremental),
		EffectiveRate:    rate.Round(4),
		BracketIndex:     idx,
		AccumTaxWithheld: round2(in.PriorTaxWithheld.Add(incremental)),
	}
}

// PeriodInput is one period in a chained year-to-date computation. The
// accumulator fields of Input are ignored; ComputeChain threads them.
type PeriodInput struct {
	GrossIncome          decimal.Decimal
	PreTaxDeductions     decimal.Decimal
	SpecialDeductions    decimal.Decimal
	AdditionalDeductions decimal.Decimal
}

// ComputeChain runs the cumulative method across an in-order slice of
// periods, threading the accumulators so that the sum of incremental
// taxes equals the final accumulated tax due.
func ComputeChain(kind PeriodKind, periods []PeriodInput) []Result {
	results := make([]Result, 0, len(periods))
	priorTaxable := decimal.Zero
	priorTax := decimal.Zero

	for _, p := range periods {
		res := Compute(Input{
			GrossIncome:          p.GrossIncome,
			PreTaxDeductions:     p.PreTaxDeductions,
			SpecialDeductions:    p.SpecialDeductions,
			AdditionalDeductions: p.AdditionalDeductions,
			PriorTaxableIncome:   priorTaxable,
			PriorTaxWithheld:     priorTax,
			PeriodKind:           kind,
		})
		results = append(results, res)
		priorTaxable = res.AccumTaxable
		priorTax = res.AccumTaxWithheld
	}

	return results
}
