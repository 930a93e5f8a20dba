package payroll

import (
	"github.com/salarysys/payroll-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// AggregateItems sums line items into gross pay, total deductions and net
// pay. Items whose component kind is unknown (no joined component) are
// ignored. Pure function.
func AggregateItems(items []payroll.PayrollItem) payroll.Totals {
	gross := decimal.Zero
	deductions := decimal.Zero

	for _, item := range items {
		if item.ComponentKind == nil {
			continue
		}
		switch *item.ComponentKind {
		case payroll.ComponentKindEarning:
			gross = gross.Add(item.Amount)
		case payroll.ComponentKindDeduction:
			deductions = deductions.Add(item.Amount)
		}
	}

	return payroll.Totals{
		GrossPay:        gross,
		TotalDeductions: deductions,
		NetPay:          gross.Sub(deductions),
	}
}
