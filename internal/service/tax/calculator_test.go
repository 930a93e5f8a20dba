package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute_FirstBracketMonthly(t *testing.T) {
	t.Parallel()

	// 8000 gross, 1200 social+housing, 1000 special deductions:
	// taxable = 8000-1200-1000-5000 = 800, rate 3%, tax 24.00.
	result := Compute(Input{
		GrossIncome:       d("8000"),
		PreTaxDeductions:  d("1200"),
		SpecialDeductions: d("1000"),
		PeriodKind:        PeriodMonthly,
	})

	assert.True(t, d("800").Equal(result.TaxableIncome), "taxable = %s", result.TaxableIncome)
	assert.True(t, d("24.00").Equal(result.IncrementalTax), "incremental = %s", result.IncrementalTax)
	assert.Equal(t, 0, result.BracketIndex)
}

func TestCompute_BelowThreshold(t *testing.T) {
	t.Parallel()

	result := Compute(Input{
		GrossIncome:      d("4500"),
		PreTaxDeductions: d("800"),
		PeriodKind:       PeriodMonthly,
	})

	assert.True(t, result.TaxableIncome.IsZero())
	assert.True(t, result.TaxDue.IsZero())
	assert.True(t, result.IncrementalTax.IsZero())
	assert.Equal(t, -1, result.BracketIndex)
}

func TestCompute_BracketBoundaries(t *testing.T) {
	t.Parallel()

	// Monthly bracket edges: 3000 is still the 3% band (membership is
	// (min, max]); one cent over crosses into 10%.
	cases := []struct {
		name     string
		taxable  string
		wantTax  string
		wantBand int
	}{
		{"exactly at 3% upper edge", "3000", "90.00", 0},
		{"just over the edge", "3000.01", "90.00", 1}, // 3000.01*0.10 - 210 = 90.001 → 90.00
		{"middle of 10% band", "10000", "790.00", 1},
		{"20% band", "20000", "2590.00", 2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result := Compute(Input{
				GrossIncome: d(c.taxable).Add(d("5000")),
				PeriodKind:  PeriodMonthly,
			})
			assert.True(t, d(c.wantTax).Equal(result.IncrementalTax),
				"taxable %s: got %s, want %s", c.taxable, result.IncrementalTax, c.wantTax)
			assert.Equal(t, c.wantBand, result.BracketIndex)
		})
	}
}

func TestCompute_AnnualTopBracket(t *testing.T) {
	t.Parallel()

	// 2,000,000 annual taxable: 2000000*0.45 - 181920 = 718080.
	result := Compute(Input{
		GrossIncome: d("2060000"),
		PeriodKind:  PeriodAnnual,
	})

	assert.True(t, d("718080.00").Equal(result.TaxDue), "tax due = %s", result.TaxDue)
	assert.Equal(t, 6, result.BracketIndex)
}

func TestCompute_CumulativeWithholding(t *testing.T) {
	t.Parallel()

	// Second month of the year: accumulation pushes the cumulative taxable
	// into a higher band, so the incremental exceeds the first month's tax.
	first := Compute(Input{
		GrossIncome: d("15000"),
		PeriodKind:  PeriodMonthly,
	})
	second := Compute(Input{
		GrossIncome:        d("15000"),
		PriorTaxableIncome: first.AccumTaxable,
		PriorTaxWithheld:   first.AccumTaxWithheld,
		PeriodKind:         PeriodMonthly,
	})

	// 10000 taxable lands in the 10% band; 20000 cumulative climbs to 20%.
	// first: 10000*0.10 - 210 = 790; second: 20000*0.20 - 1410 - 790 = 1800.
	require.True(t, d("790.00").Equal(first.IncrementalTax), "first = %s", first.IncrementalTax)
	assert.True(t, d("1800.00").Equal(second.IncrementalTax), "second = %s", second.IncrementalTax)
	assert.True(t, d("20000").Equal(second.AccumTaxable))
}

func TestCompute_OverWithheldFloorsAtZero(t *testing.T) {
	t.Parallel()

	// Prior withholding already exceeds the cumulative tax due; nothing is
	// refunded mid-year, so the incremental floors at zero.
	result := Compute(Input{
		GrossIncome:        d("6000"),
		PriorTaxableIncome: d("1000"),
		PriorTaxWithheld:   d("500"),
		PeriodKind:         PeriodMonthly,
	})

	assert.True(t, result.IncrementalTax.IsZero())
	assert.True(t, d("500").Equal(result.AccumTaxWithheld), "accumulator unchanged")
}

func TestCompute_NeverNegative(t *testing.T) {
	t.Parallel()

	inputs := []Input{
		{GrossIncome: d("0"), PeriodKind: PeriodMonthly},
		{GrossIncome: d("5000"), PeriodKind: PeriodMonthly},
		{GrossIncome: d("3000"), PreTaxDeductions: d("9000"), PeriodKind: PeriodMonthly},
		{GrossIncome: d("100000"), PriorTaxWithheld: d("999999"), PeriodKind: PeriodMonthly},
	}

	for _, in := range inputs {
		result := Compute(in)
		assert.False(t, result.IncrementalTax.IsNegative())
		assert.False(t, result.TaxDue.IsNegative())
		assert.False(t, result.TaxableIncome.IsNegative())
	}
}

func TestCompute_MonotonicInGross(t *testing.T) {
	t.Parallel()

	prev := decimal.Zero
	for gross := int64(5000); gross <= 120000; gross += 5000 {
		result := Compute(Input{
			GrossIncome: decimal.NewFromInt(gross),
			PeriodKind:  PeriodMonthly,
		})
		assert.True(t, result.IncrementalTax.GreaterThanOrEqual(prev),
			"tax decreased at gross %d: %s < %s", gross, result.IncrementalTax, prev)
		prev = result.IncrementalTax
	}
}

func TestComputeChain_SumsToFinalDue(t *testing.T) {
	t.Parallel()

	periods := make([]PeriodInput, 12)
	for i := range periods {
		periods[i] = PeriodInput{
			GrossIncome:       d("30000"),
			PreTaxDeductions:  d("3500"),
			SpecialDeductions: d("1500"),
		}
	}

	results := ComputeChain(PeriodMonthly, periods)
	require.Len(t, results, 12)

	sum := decimal.Zero
	for _, r := range results {
		sum = sum.Add(r.IncrementalTax)
	}
	final := results[len(results)-1]
	assert.True(t, sum.Equal(final.AccumTaxWithheld),
		"sum of increments %s != final accumulated %s", sum, final.AccumTaxWithheld)

	// Twelve identical months accumulate 12x one month's taxable.
	assert.True(t, d("240000").Equal(final.AccumTaxable))
}

func TestComputeChain_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ComputeChain(PeriodMonthly, nil))
}
