// Package ladder implements the order-ladder reconciliation algorithm:
// given current active orders, depth books, balances, and target quotes,
// it decides which resting orders to cancel and which new ones to place,
// applying both through an OrderPlacer.
package ladder

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"ladder-mm/internal/quant"
	"ladder-mm/pkg/types"
)

// OrderPlacer is the capability LadderManager depends on instead of a
// concrete venue adapter, so it never imports MakerVenueAdapter directly.
type OrderPlacer interface {
	ActiveOrders() types.ActiveOrders
	Balances() types.Balances
	PlaceLimit(ctx context.Context, side types.Side, size, price decimal.Decimal) (orderID string, ok bool)
	Cancel(ctx context.Context, orderID string) (ok bool)
}

// These thresholds bundle the magic numbers from the cancellation rules so they
// read as named quantities rather than bare literals scattered through the
// reconciliation logic.
var (
	oversizedAtQuote    = decimal.NewFromInt(5000)
	oversizedOutsideBand = decimal.NewFromInt(20000)
	bandPct             = decimal.NewFromFloat(0.02) // 2%

	minSize     = decimal.NewFromInt(2000)
	maxSize     = decimal.NewFromInt(4000)
	minFreeBase = decimal.NewFromInt(400)
)

// Manager holds the ladder's static shape parameters.
type Manager struct {
	placer     OrderPlacer
	logger     *slog.Logger
	nAsks      int
	nBids      int
	baseAsset  string
	quoteAsset string
}

// New constructs a Manager.
func New(placer OrderPlacer, nAsks, nBids int, baseAsset, quoteAsset string, logger *slog.Logger) *Manager {
	return &Manager{
		placer:     placer,
		logger:     logger.With("component", "ladder"),
		nAsks:      nAsks,
		nBids:      nBids,
		baseAsset:  baseAsset,
		quoteAsset: quoteAsset,
	}
}

// Reconcile runs one full cancel/place cycle given the maker and reference
// books and the quotes the Pricer computed for this cycle. It returns
// without action if either book is empty or either asset's balance is
// missing; quotes arrive already computed, and the caller skips this call
// when the Pricer returns none.
func (m *Manager) Reconcile(ctx context.Context, maker, reference types.OrderBook, askQ, bidQ decimal.Decimal, mid decimal.Decimal, balances types.Balances) {
	if maker.Empty() || reference.Empty() {
		return
	}
	base, hasBase := balances[m.baseAsset]
	quote, hasQuote := balances[m.quoteAsset]
	if !hasBase || !hasQuote {
		return
	}

	active := m.placer.ActiveOrders()

	m.cancelAsks(ctx, active.Asks, askQ, mid)
	m.cancelBids(ctx, active.Bids, bidQ, mid)

	// Re-read active orders: cancellations above already mutated the
	// in-memory ladder via the adapter's own Cancel().
	active = m.placer.ActiveOrders()

	m.placeAsks(ctx, active.Asks, askQ, base.Free)
	m.placeBids(ctx, active.Bids, bidQ, quote.Free)
}

func (m *Manager) cancelAsks(ctx context.Context, asks []types.PriceLevel, askQ, mid decimal.Decimal) {
	topBand := mid.Mul(decimal.NewFromInt(1).Add(bandPct))
	windowTop := askQ.Add(quant.Tick.Mul(decimal.NewFromInt(int64(m.nAsks - 1))))

	for _, lvl := range asks {
		stale := lvl.Price.LessThan(askQ)
		tooFar := lvl.Price.GreaterThan(windowTop)
		oversizedFront := lvl.Price.Equal(askQ) && lvl.Size.GreaterThan(oversizedAtQuote)
		oversizedOutside := lvl.Price.GreaterThan(topBand) && lvl.Size.GreaterThan(oversizedOutsideBand)

		if stale || tooFar || oversizedFront || oversizedOutside {
			if ok := m.placer.Cancel(ctx, lvl.ID); !ok {
				continue
			}
		}
	}
}

func (m *Manager) cancelBids(ctx context.Context, bids []types.PriceLevel, bidQ, mid decimal.Decimal) {
	bottomBand := mid.Mul(decimal.NewFromInt(1).Sub(bandPct))
	windowBottom := bidQ.Sub(quant.Tick.Mul(decimal.NewFromInt(int64(m.nBids - 1))))

	for _, lvl := range bids {
		stale := lvl.Price.GreaterThan(bidQ)
		tooFar := lvl.Price.LessThan(windowBottom)
		oversizedFront := lvl.Price.Equal(bidQ) && lvl.Size.GreaterThan(oversizedAtQuote)
		oversizedOutside := lvl.Price.LessThan(bottomBand) && lvl.Size.GreaterThan(oversizedOutsideBand)

		if stale || tooFar || oversizedFront || oversizedOutside {
			if ok := m.placer.Cancel(ctx, lvl.ID); !ok {
				continue
			}
		}
	}
}

func (m *Manager) placeAsks(ctx context.Context, asks []types.PriceLevel, askQ, freeBase decimal.Decimal) {
	price := askQ
	for i := 0; i < m.nAsks; i++ {
		if !hasLevelAt(asks, price) {
			existing := len(asks)
			slots := decimal.NewFromInt(int64(m.nAsks - existing))
			if slots.Sign() <= 0 {
				break
			}
			slotCap := freeBase.Div(slots).Floor()
			if slotCap.Sign() <= 0 || freeBase.LessThanOrEqual(minFreeBase) {
				break
			}

			size := randomSize()
			if size.GreaterThan(slotCap) {
				size = slotCap
			}
			if size.Sign() <= 0 {
				break
			}

			id, ok := m.placer.PlaceLimit(ctx, types.Sell, size, price)
			if ok {
				asks = insertAscending(asks, types.PriceLevel{ID: id, Price: price, Size: size})
				freeBase = freeBase.Sub(size)
			}
		}
		price = price.Add(quant.Tick)
	}
}

func (m *Manager) placeBids(ctx context.Context, bids []types.PriceLevel, bidQ, freeQuote decimal.Decimal) {
	price := bidQ
	for i := 0; i < m.nBids; i++ {
		if !hasLevelAt(bids, price) {
			existing := len(bids)
			slots := decimal.NewFromInt(int64(m.nBids - existing))
			if slots.Sign() <= 0 {
				break
			}
			slotCap := freeQuote.Div(price.Mul(slots)).Floor()
			if slotCap.Sign() <= 0 || freeQuote.LessThanOrEqual(decimal.NewFromFloat(1.10)) {
				break
			}

			size := randomSize()
			if size.GreaterThan(slotCap) {
				size = slotCap
			}
			notional := size.Mul(price)
			if size.Sign() <= 0 || notional.LessThan(decimal.NewFromInt(1)) {
				break
			}

			id, ok := m.placer.PlaceLimit(ctx, types.Buy, size, price)
			if ok {
				bids = insertDescending(bids, types.PriceLevel{ID: id, Price: price, Size: size})
				freeQuote = freeQuote.Sub(notional)
			}
		}
		price = price.Sub(quant.Tick)
	}
}

func hasLevelAt(levels []types.PriceLevel, price decimal.Decimal) bool {
	for _, l := range levels {
		if l.Price.Equal(price) {
			return true
		}
	}
	return false
}

func insertAscending(levels []types.PriceLevel, lvl types.PriceLevel) []types.PriceLevel {
	i := 0
	for i < len(levels) && levels[i].Price.LessThan(lvl.Price) {
		i++
	}
	levels = append(levels, types.PriceLevel{})
	copy(levels[i+1:], levels[i:])
	levels[i] = lvl
	return levels
}

func insertDescending(levels []types.PriceLevel, lvl types.PriceLevel) []types.PriceLevel {
	i := 0
	for i < len(levels) && levels[i].Price.GreaterThan(lvl.Price) {
		i++
	}
	levels = append(levels, types.PriceLevel{})
	copy(levels[i+1:], levels[i:])
	levels[i] = lvl
	return levels
}

// randomSize draws a uniform integer-valued size in [2000, 4000] so the
// ladder doesn't present a trivially identifiable on-book signature.
func randomSize() decimal.Decimal {
	span := maxSize.Sub(minSize).IntPart() + 1
	return minSize.Add(decimal.NewFromInt(rand.Int64N(span)))
}
