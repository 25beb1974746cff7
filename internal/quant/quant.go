// Package quant centralizes the fixed-point decimal constants and rounding
// conventions the rest of the engine builds on. Every price, size, and
// balance in this codebase is a shopspring/decimal.Decimal; binary
// floating point never touches the money path.
package quant

import "github.com/shopspring/decimal"

func init() {
	// The source this design is grounded on runs at a process-wide decimal
	// precision of 18 digits; DivisionPrecision governs the number of
	// fractional digits decimal.Decimal keeps on non-exact divisions
	// (Div, and anything built on it).
	decimal.DivisionPrecision = 18
}

// mustParse parses a decimal literal at init time. A malformed built-in
// constant is a programming error, not a runtime one, so it panics rather
// than threading an error through every constructor that needs a constant.
func mustParse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("quant: invalid constant literal " + s + ": " + err.Error())
	}
	return d
}

var (
	// Tick is the minimum price increment on the maker venue.
	Tick = mustParse("0.00001")

	// InventoryTarget is the resting inventory level the quoting model
	// treats as neutral.
	InventoryTarget = mustParse("500000")

	// InventoryLimit scales the inventory-skew term; it is not a hard cap.
	InventoryLimit = mustParse("200000")

	// HalfSpread is the nominal half-spread quoted away from fair price,
	// two ticks wide.
	HalfSpread = mustParse("0.00002")

	// SkewAlpha is the per-unit-z shift applied symmetrically to both
	// quotes: HalfSpread * 0.5.
	SkewAlpha = HalfSpread.Mul(mustParse("0.5"))
)

// RoundHalfUp quantizes d to places fractional digits, rounding .5 away
// from zero.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// RoundHalfDown quantizes d to places fractional digits, rounding .5
// toward zero. decimal.Decimal has no native half-down mode, so this
// truncates toward zero and rounds away from zero only when the discarded
// part is more than half a unit in the last kept place.
func RoundHalfDown(d decimal.Decimal, places int32) decimal.Decimal {
	truncated := d.Truncate(places)
	half := decimal.New(5, -(places + 1))
	if d.Sub(truncated).Abs().GreaterThan(half) {
		return d.Round(places)
	}
	return truncated
}

// RoundFloor quantizes d to places fractional digits, always rounding
// toward negative infinity.
func RoundFloor(d decimal.Decimal, places int32) decimal.Decimal {
	return d.RoundFloor(places)
}

// QuantizeTick rounds a price to the nearest Tick using half-up rounding,
// the convention used for both ask and bid quotes.
func QuantizeTick(price decimal.Decimal) decimal.Decimal {
	return RoundHalfUp(price, 5)
}
