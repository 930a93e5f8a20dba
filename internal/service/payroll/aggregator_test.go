package payroll

import (
	"testing"

	"github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func kind(k payroll.ComponentKind) *payroll.ComponentKind { return &k }

func item(k payroll.ComponentKind, amount string) payroll.PayrollItem {
	return payroll.PayrollItem{
		Amount:        decimal.RequireFromString(amount),
		ComponentKind: kind(k),
	}
}

func TestAggregateItems_MixedItems(t *testing.T) {
	t.Parallel()

	totals := AggregateItems([]payroll.PayrollItem{
		item(payroll.ComponentKindEarning, "12000"),
		item(payroll.ComponentKindEarning, "3000.50"),
		item(payroll.ComponentKindDeduction, "1200"),
		item(payroll.ComponentKindDeduction, "450.25"),
	})

	assert.True(t, decimal.RequireFromString("15000.50").Equal(totals.GrossPay))
	assert.True(t, decimal.RequireFromString("1650.25").Equal(totals.TotalDeductions))
	assert.True(t, decimal.RequireFromString("13350.25").Equal(totals.NetPay))
}

func TestAggregateItems_NetIdentity(t *testing.T) {
	t.Parallel()

	cases := [][]payroll.PayrollItem{
		nil,
		{item(payroll.ComponentKindEarning, "100")},
		{item(payroll.ComponentKindDeduction, "100")},
		{
			item(payroll.ComponentKindEarning, "8000"),
			item(payroll.ComponentKindDeduction, "9000"), // net may go negative
		},
	}

	for _, items := range cases {
		totals := AggregateItems(items)
		assert.True(t, totals.NetPay.Equal(totals.GrossPay.Sub(totals.TotalDeductions)))
	}
}

func TestAggregateItems_IgnoresItemsWithoutComponentKind(t *testing.T) {
	t.Parallel()

	totals := AggregateItems([]payroll.PayrollItem{
		{Amount: decimal.RequireFromString("500")}, // no joined component
		item(payroll.ComponentKindEarning, "1000"),
	})

	assert.True(t, decimal.RequireFromString("1000").Equal(totals.GrossPay))
}

func TestAggregateItems_Empty(t *testing.T) {
	t.Parallel()

	totals := AggregateItems(nil)
	assert.True(t, totals.GrossPay.IsZero())
	assert.True(t, totals.TotalDeductions.IsZero())
	assert.True(t, totals.NetPay.IsZero())
}
