package api

import (
	"time"

	"github.com/shopspring/decimal"

	"ladder-mm/internal/config"
	"ladder-mm/internal/pricer"
	"ladder-mm/pkg/types"
)

// StateProvider is the read-only capability the dashboard needs from the
// supervisor: current books, ladder, balances, and volume counters. It
// never exposes mutating methods — the dashboard cannot place or cancel.
type StateProvider interface {
	MakerBook() types.OrderBook
	ReferenceBook() types.OrderBook
	ActiveOrders() types.ActiveOrders
	Balances() types.Balances
	AmountBoughtSold() (bought, sold decimal.Decimal)
}

// BuildSnapshot aggregates live state into a DashboardSnapshot.
func BuildSnapshot(provider StateProvider, cfg config.Config) DashboardSnapshot {
	maker := provider.MakerBook()
	reference := provider.ReferenceBook()
	active := provider.ActiveOrders()
	balances := provider.Balances()
	bought, sold := provider.AmountBoughtSold()

	mid, _ := maker.Mid()
	spread, _ := pricer.MarketSpread(maker)
	depthVal := pricer.MarketDepth(maker, pricer.FairPricePct)
	fairPrice, _ := pricer.FairPrice(maker, reference, pricer.FairPricePct)
	askQ, bidQ, _ := pricer.Quotes(maker, reference, balances, cfg.Strategy.BaseAsset)

	asks := make([]LevelView, len(active.Asks))
	for i, l := range active.Asks {
		asks[i] = LevelView{OrderID: l.ID, Price: l.Price, Size: l.Size}
	}
	bids := make([]LevelView, len(active.Bids))
	for i, l := range active.Bids {
		bids[i] = LevelView{OrderID: l.ID, Price: l.Price, Size: l.Size}
	}

	balanceViews := make(map[string]BalanceView, len(balances))
	for asset, bal := range balances {
		balanceViews[asset] = BalanceView{Free: bal.Free, Locked: bal.Locked}
	}

	return DashboardSnapshot{
		Timestamp:    time.Now(),
		Pair:         cfg.Pair,
		Mid:          mid,
		SpreadPct:    spread,
		Depth:        depthVal,
		FairPrice:    fairPrice,
		AskQuote:     askQ,
		BidQuote:     bidQ,
		ActiveAsks:   asks,
		ActiveBids:   bids,
		Balances:     balanceViews,
		AmountBought: bought,
		AmountSold:   sold,
		Config:       NewConfigSummary(cfg),
	}
}
