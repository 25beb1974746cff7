package api

import (
	"time"

	"github.com/shopspring/decimal"

	"ladder-mm/internal/config"
)

// DashboardSnapshot represents the complete read-only status view: pricing
// state, the current ladder, and balances for a single pair.
type DashboardSnapshot struct {
	Timestamp time.Time `json:"timestamp"`
	Pair      string    `json:"pair"`

	Mid       decimal.Decimal `json:"mid"`
	SpreadPct decimal.Decimal `json:"spread_pct"`
	Depth     decimal.Decimal `json:"depth"`
	FairPrice decimal.Decimal `json:"fair_price"`
	AskQuote  decimal.Decimal `json:"ask_quote"`
	BidQuote  decimal.Decimal `json:"bid_quote"`

	ActiveAsks []LevelView `json:"active_asks"`
	ActiveBids []LevelView `json:"active_bids"`

	Balances map[string]BalanceView `json:"balances"`

	AmountBought decimal.Decimal `json:"amount_bought"`
	AmountSold   decimal.Decimal `json:"amount_sold"`

	Config ConfigSummary `json:"config"`
}

// LevelView is one resting order as exposed to the dashboard.
type LevelView struct {
	OrderID string          `json:"order_id"`
	Price   decimal.Decimal `json:"price"`
	Size    decimal.Decimal `json:"size"`
}

// BalanceView is one asset's free/locked balance.
type BalanceView struct {
	Free   decimal.Decimal `json:"free"`
	Locked decimal.Decimal `json:"locked"`
}

// ConfigSummary is the subset of strategy configuration worth surfacing on
// the dashboard.
type ConfigSummary struct {
	Pair                string  `json:"pair"`
	BaseAsset           string  `json:"base_asset"`
	QuoteAsset          string  `json:"quote_asset"`
	NAsks               int     `json:"n_asks"`
	NBids               int     `json:"n_bids"`
	ExpectedDepthMin    float64 `json:"expected_depth_min"`
	ExpectedDepthMax    float64 `json:"expected_depth_max"`
	LadderResetInterval string  `json:"ladder_reset_interval"`
	DryRun              bool    `json:"dry_run"`
}

// NewConfigSummary builds a ConfigSummary from the live config.
func NewConfigSummary(cfg config.Config) ConfigSummary {
	return ConfigSummary{
		Pair:                cfg.Pair,
		BaseAsset:           cfg.Strategy.BaseAsset,
		QuoteAsset:          cfg.Strategy.QuoteAsset,
		NAsks:               cfg.Strategy.NAsks,
		NBids:               cfg.Strategy.NBids,
		ExpectedDepthMin:    cfg.Strategy.ExpectedDepthMin,
		ExpectedDepthMax:    cfg.Strategy.ExpectedDepthMax,
		LadderResetInterval: cfg.Strategy.LadderResetInterval.String(),
		DryRun:              cfg.DryRun,
	}
}

// DashboardEvent is the envelope for every message pushed to connected
// WebSocket clients.
type DashboardEvent struct {
	Type      string      `json:"type"` // "snapshot" or "fill"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// FillView is a fill notification pushed to the dashboard as it happens.
type FillView struct {
	OrderID   string          `json:"order_id"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	CumQty    decimal.Decimal `json:"cum_qty"`
	RemainQty decimal.Decimal `json:"remain_qty"`
	Status    int             `json:"status"`
}
