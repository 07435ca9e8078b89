package cart

import (
	"github.com/localmarket/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SelectedOption is a resolved variant option participating in pricing.
// Exactly one of the two price fields is meaningful: an absolute price
// replaces the running unit price, a price adjustment accumulates on top of
// it.
type SelectedOption struct {
	ID              string
	PriceAdjustment decimal.Decimal
	AbsolutePrice   *decimal.Decimal
}

// PriceInputs carries everything pricing needs for one line.
type PriceInputs struct {
	// ListPrice is the product's global price.
	ListPrice decimal.Decimal
	// BranchPrice is the branch-scoped override, nil when the branch has no
	// enabled override.
	BranchPrice *decimal.Decimal
	// Options are the resolved selected options in canonical evaluation
	// order (see ItemIdentity.OrderedOptionIDs).
	Options []SelectedOption
}

// Quote is the priced result for one line.
type Quote struct {
	UnitPrice         decimal.Decimal
	VariantAdjustment decimal.Decimal
	Subtotal          decimal.Decimal
}

// CalculateQuote resolves the unit price and variant adjustment for a line
// and computes its subtotal.
//
// The unit price starts from the branch override when present, else the list
// price. Options are walked in the given order: an absolute price replaces
// the running unit price (when several options declare one, the last
// evaluated wins), a plain adjustment accumulates. The subtotal is
// (unit + adjustment) * quantity rounded to 2 places and clamped at zero.
func CalculateQuote(in PriceInputs, quantity int) (Quote, error) {
	if quantity <= 0 {
		return Quote{}, shared.NewDomainError("INVALID_INPUT", "Quantity must be positive")
	}

	unit := in.ListPrice
	if in.BranchPrice != nil {
		unit = *in.BranchPrice
	}

	adjustment := decimal.Zero
	for _, opt := range in.Options {
		if opt.AbsolutePrice != nil {
			unit = *opt.AbsolutePrice
			continue
		}
		adjustment = adjustment.Add(opt.PriceAdjustment)
	}

	return Quote{
		UnitPrice:         unit,
		VariantAdjustment: adjustment,
		Subtotal:          lineSubtotal(unit, adjustment, quantity),
	}, nil
}

// lineSubtotal computes (unit + adjustment) * quantity rounded to 2 decimal
// places. A negative result is clamped to zero so a large downward adjustment
// can never produce a negative line.
func lineSubtotal(unit, adjustment decimal.Decimal, quantity int) decimal.Decimal {
	subtotal := unit.Add(adjustment).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	if subtotal.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return subtotal
}
