package finance

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// LineInput is the billable portion of a project line item.
type LineInput struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

// Totals is the derived financial summary of a project.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Withholding decimal.Decimal `json:"withholding"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeTotals derives subtotal, withholding and total from line items and
// tax parameters. The tax amount is a flat figure supplied by the caller;
// withholding is a percentage of the subtotal deducted before the total.
// No rounding is applied here; callers round at presentation boundaries.
func ComputeTotals(items []LineInput, taxAmount, withholdingPercent decimal.Decimal) (Totals, error) {
	if withholdingPercent.IsNegative() || withholdingPercent.GreaterThan(oneHundred) {
		return Totals{}, ErrInvalidWithholding
	}
	if taxAmount.IsNegative() {
		return Totals{}, ErrNegativeAmount
	}

	subtotal := decimal.Zero
	for _, item := range items {
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return Totals{}, ErrNegativeAmount
		}
		subtotal = subtotal.Add(item.Quantity.Mul(item.UnitPrice))
	}

	withholding := subtotal.Mul(withholdingPercent).Div(oneHundred)
	total := subtotal.Add(taxAmount).Sub(withholding)

	return Totals{
		Subtotal:    subtotal,
		Tax:         taxAmount,
		Withholding: withholding,
		Total:       total,
	}, nil
}

// LineAmount returns the derived amount of a single line, quantity times
// unit price. Items never carry an independently settable amount.
func LineAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}
