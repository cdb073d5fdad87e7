package sale

import "github.com/shopspring/decimal"

// Tier enumerates the quantity-based discount brackets.
type Tier string

const (
	// TierNone applies to quantities of 1 to 3 units: no discount.
	TierNone Tier = "none"
	// TierTen applies to quantities of 4 to 9 units: 10% off the line gross.
	TierTen Tier = "ten_percent"
	// TierTwenty applies to quantities of 10 to 20 units: 20% off the line gross.
	TierTwenty Tier = "twenty_percent"
)

// MaxItemQuantity is the largest quantity of a single product that may be
// sold on one line. Anything above it is a business-rule violation, not a
// bigger discount.
const MaxItemQuantity = 20

var hundred = decimal.NewFromInt(100)

// Percentage returns the tier's discount percentage as a decimal (e.g. 10).
func (t Tier) Percentage() decimal.Decimal {
	switch t {
	case TierTen:
		return decimal.NewFromInt(10)
	case TierTwenty:
		return decimal.NewFromInt(20)
	default:
		return decimal.Zero
	}
}

// TierFor returns the discount tier for the given quantity. Quantity alone
// drives the bracket; callers are expected to have rejected quantities
// outside [1, MaxItemQuantity] already.
func TierFor(quantity int) Tier {
	switch {
	case quantity >= 10:
		return TierTwenty
	case quantity >= 4:
		return TierTen
	default:
		return TierNone
	}
}

// ComputeDiscount returns the monetary discount for quantity units at
// unitPrice, together with the tier that produced it. The computation keeps
// full decimal precision; rounding to currency scale happens only at the
// persistence and API boundaries.
func ComputeDiscount(unitPrice decimal.Decimal, quantity int) (decimal.Decimal, Tier) {
	tier := TierFor(quantity)
	gross := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return gross.Mul(tier.Percentage()).Div(hundred), tier
}
