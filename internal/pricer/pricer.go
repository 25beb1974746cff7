// Package pricer implements the pure pricing functions: market depth,
// market spread, cross-venue fair price, and inventory-skewed quotes. None
// of these functions hold locks or perform I/O; they take immutable
// snapshots and decimal inputs and return decimals (or ok=false in place
// of a null when an input is empty).
//
// Pricer depends only on the OrderBookSource capability below, never on
// the maker or reference adapter packages directly, so the two adapters
// and the pricing model can evolve independently (see the cyclic-module
// design note this resolves).
package pricer

import (
	"github.com/shopspring/decimal"

	"ladder-mm/internal/quant"
	"ladder-mm/pkg/types"
)

// OrderBookSource is the capability Pricer needs from a venue adapter: a
// non-blocking snapshot of its current public order book.
type OrderBookSource interface {
	OrderBook() types.OrderBook
}

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// MarketDepth sums price*size over all levels within ±pct% of mid. pct is
// expressed as a whole percentage (2 means 2%). Returns zero when either
// side of the book is empty.
func MarketDepth(b types.OrderBook, pct decimal.Decimal) decimal.Decimal {
	mid, ok := b.Mid()
	if !ok {
		return zero
	}

	band := pct.Div(hundred)
	lower := mid.Mul(decimal.NewFromInt(1).Sub(band))
	upper := mid.Mul(decimal.NewFromInt(1).Add(band))

	total := zero
	for _, l := range b.Asks {
		if l.Price.GreaterThanOrEqual(lower) && l.Price.LessThanOrEqual(upper) {
			total = total.Add(l.Price.Mul(l.Size))
		}
	}
	for _, l := range b.Bids {
		if l.Price.GreaterThanOrEqual(lower) && l.Price.LessThanOrEqual(upper) {
			total = total.Add(l.Price.Mul(l.Size))
		}
	}
	return total
}

// MarketSpread returns (bestAsk-bestBid)/mid*100, or ok=false when either
// side of the book is empty.
func MarketSpread(b types.OrderBook) (spread decimal.Decimal, ok bool) {
	ask, hasAsk := b.BestAsk()
	bid, hasBid := b.BestBid()
	if !hasAsk || !hasBid {
		return zero, false
	}
	mid, _ := b.Mid()
	if mid.IsZero() {
		return zero, false
	}
	return ask.Price.Sub(bid.Price).Div(mid).Mul(hundred), true
}

// FairPrice computes the liquidity-weighted cross-venue mid, clamped to the
// reference venue's best bid/ask. pct is the depth band used to weight each
// venue's liquidity (2 per the quoting model). Returns ok=false if either
// book is empty.
func FairPrice(maker, reference types.OrderBook, pct decimal.Decimal) (fp decimal.Decimal, ok bool) {
	if maker.Empty() || reference.Empty() {
		return zero, false
	}

	makerMid, _ := maker.Mid()
	refMid, _ := reference.Mid()
	makerLiq := MarketDepth(maker, pct)
	refLiq := MarketDepth(reference, pct)

	denom := makerLiq.Add(refLiq)
	if denom.IsZero() {
		// No liquidity within the band on either venue: fall back to an
		// unweighted average rather than dividing by zero.
		fp = makerMid.Add(refMid).Div(decimal.NewFromInt(2))
	} else {
		fp = makerMid.Mul(makerLiq).Add(refMid.Mul(refLiq)).Div(denom)
	}
	fp = quant.RoundHalfUp(fp, 5)

	refAsk, _ := reference.BestAsk()
	refBid, _ := reference.BestBid()
	if fp.GreaterThan(refAsk.Price) {
		fp = quant.RoundHalfDown(refAsk.Price, 5)
	} else if fp.LessThan(refBid.Price) {
		fp = quant.RoundHalfUp(refBid.Price, 5)
	}

	return fp, true
}

// FairPricePct is the depth band used by Quotes when deriving fair price:
// two percent, per the quoting model.
var FairPricePct = decimal.NewFromInt(2)

// Quotes derives (askPrice, bidPrice) from the two books and the maker
// venue's current base-asset balance. baseAsset names the inventory side
// the skew term tracks (RMV in the scenario walkthrough, configurable
// elsewhere). Returns ok=false whenever FairPrice does (e.g. an empty
// reference book), in which case callers must not place or cancel anything.
func Quotes(maker, reference types.OrderBook, balances types.Balances, baseAsset string) (ask, bid decimal.Decimal, ok bool) {
	fp, ok := FairPrice(maker, reference, FairPricePct)
	if !ok {
		return zero, zero, false
	}

	inventory := balances[baseAsset].Total()
	z := inventory.Sub(quant.InventoryTarget).Div(quant.InventoryLimit)
	shift := quant.SkewAlpha.Mul(z)

	ask = quant.QuantizeTick(fp.Add(quant.HalfSpread).Sub(shift))
	bid = quant.QuantizeTick(fp.Sub(quant.HalfSpread).Sub(shift))
	return ask, bid, true
}
