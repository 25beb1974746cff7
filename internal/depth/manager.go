// Package depth implements the target-depth enforcement that runs after
// LadderManager on every maker-depth event: it resizes inner levels of the
// ladder upward when the resting book is thinner than the configured
// notional budget.
package depth

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"ladder-mm/internal/ladder"
	"ladder-mm/internal/pricer"
	"ladder-mm/pkg/types"
)

const (
	maxIterations = 100
	minAddition   = 8000
	maxAddition   = 2000 // span added to minAddition below, kept separate for clarity
)

var (
	bandPct       = decimal.NewFromInt(2) // pricer.MarketDepth takes a whole-percent pct, matching FairPricePct's convention
	perSideCap    = decimal.NewFromInt(290000)
	freeBalanceHaircut = decimal.NewFromFloat(0.999)
)

// Manager enforces EXPECTED_DEPTH on the maker book.
type Manager struct {
	placer         ladder.OrderPlacer
	logger         *slog.Logger
	baseAsset      string
	quoteAsset     string
	expectedDepthMin decimal.Decimal
}

// New constructs a depth Manager. expectedDepthMin is EXPECTED_DEPTH, the
// lower edge of the notional band DepthManager defends (0.98 · EXPECTED is
// the actual trigger threshold, per the reconciliation rule below).
func New(placer ladder.OrderPlacer, baseAsset, quoteAsset string, expectedDepthMin decimal.Decimal, logger *slog.Logger) *Manager {
	return &Manager{
		placer:           placer,
		logger:           logger.With("component", "depth"),
		baseAsset:        baseAsset,
		quoteAsset:       quoteAsset,
		expectedDepthMin: expectedDepthMin,
	}
}

// Reconcile tops up the ladder's notional depth if it has fallen below
// 0.98 · EXPECTED_DEPTH within the ±2% band around mid.
func (m *Manager) Reconcile(ctx context.Context, maker types.OrderBook, balances types.Balances) {
	if maker.Empty() {
		return
	}
	actual := pricer.MarketDepth(maker, bandPct)
	threshold := m.expectedDepthMin.Mul(decimal.NewFromFloat(0.98))
	if actual.GreaterThanOrEqual(threshold) {
		return
	}

	deficit := m.expectedDepthMin.Sub(actual)

	base := balances[m.baseAsset]
	quote := balances[m.quoteAsset]
	mid, ok := maker.Mid()
	if !ok {
		return
	}
	baseValue := base.Total().Mul(mid)
	quoteValue := quote.Total()
	totalValue := baseValue.Add(quoteValue)
	if totalValue.Sign() <= 0 {
		return
	}

	deficitBase := deficit.Mul(baseValue).Div(totalValue)
	deficitQuote := deficit.Mul(quoteValue).Div(totalValue)

	active := m.placer.ActiveOrders()
	lowerBound, upperBound := bandBounds(maker, mid, active)

	m.resizeSide(ctx, active.Asks, types.Sell, deficitBase, base.Free, lowerBound, upperBound)
	m.resizeSide(ctx, active.Bids, types.Buy, deficitQuote, quote.Free, lowerBound, upperBound)
}

// bandBounds returns the ±2% price band around mid, except that if either
// side of the active ladder is empty the bounds collapse to (0, 2^32) so
// DepthManager can rebuild depth anywhere, kickstarting the ladder after a
// reset.
func bandBounds(maker types.OrderBook, mid decimal.Decimal, active types.ActiveOrders) (lower, upper decimal.Decimal) {
	if len(active.Asks) == 0 || len(active.Bids) == 0 {
		return decimal.Zero, decimal.NewFromInt(1 << 32)
	}
	lower = mid.Mul(decimal.NewFromFloat(0.98))
	upper = mid.Mul(decimal.NewFromFloat(1.02))
	return lower, upper
}

// resizeSide walks inner levels (skipping index 0, the top of book owned by
// LadderManager) from outside in, topping up eligible levels until the
// deficit is exhausted or the safety counter runs out.
func (m *Manager) resizeSide(ctx context.Context, levels []types.PriceLevel, side types.Side, deficit, freeBalance decimal.Decimal, lowerBound, upperBound decimal.Decimal) {
	if len(levels) <= 1 {
		return
	}

	remaining := deficit
	iterations := 0
	for i := len(levels) - 1; i >= 1 && remaining.Sign() > 0 && iterations < maxIterations; i-- {
		iterations++
		lvl := levels[i]

		if lvl.Size.GreaterThanOrEqual(perSideCap) {
			continue
		}
		if lvl.Price.LessThan(lowerBound) || lvl.Price.GreaterThan(upperBound) {
			continue
		}

		addition := decimal.NewFromInt(minAddition + rand.Int64N(maxAddition+1))
		cappedFree := freeBalance.Mul(freeBalanceHaircut)
		if addition.GreaterThan(cappedFree) {
			addition = cappedFree
		}
		if addition.Sign() <= 0 {
			continue
		}

		newSize := lvl.Size.Add(addition)
		if ok := m.placer.Cancel(ctx, lvl.ID); !ok {
			continue
		}

		newID, placed := m.placer.PlaceLimit(ctx, side, newSize, lvl.Price)
		if !placed {
			continue
		}
		levels[i] = types.PriceLevel{ID: newID, Price: lvl.Price, Size: newSize}

		notionalAdded := addition.Mul(lvl.Price)
		remaining = remaining.Sub(notionalAdded)
		freeBalance = freeBalance.Sub(addition)
	}
}
