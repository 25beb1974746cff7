package maker

import (
	"context"

	"github.com/shopspring/decimal"

	"ladder-mm/pkg/types"
)

// RunDepthStream connects the public-depth stream and keeps running until
// ctx is cancelled, reconnecting with a fixed 5-second backoff on any
// error. Every frame fully replaces the public book; a frame whose
// contents are pointwise identical to the current book is dropped without
// enqueuing an event.
func (a *Adapter) RunDepthStream(ctx context.Context, wsURL string) {
	s := &stream{
		name:   "maker-depth",
		url:    wsURL,
		logger: a.logger,
		handle: a.handleDepthFrame,
	}
	s.run(ctx)
}

func (a *Adapter) handleDepthFrame(data []byte) {
	var f depthFrame
	if err := decodeFrame(data, &f); err != nil {
		a.logger.Error("decode depth frame", "error", err)
		return
	}

	next := types.OrderBook{
		Asks: parseLevels(f.Asks),
		Bids: parseLevels(f.Bids),
	}
	if changed := a.depth.Replace(next); changed {
		a.bus.Publish(types.DepthUpdate(types.VenueMaker))
	}
}

// RunPrivateOrdersStream connects the private-orders stream. On each
// decoded message it mutates ActiveOrders per the status table, persists
// the fill, updates the amount_bought/amount_sold counters, and emits an
// OrderFill event for statuses that the reconciliation loop needs to react
// to (FULLY_FILLED, PARTIALLY_FILLED).
func (a *Adapter) RunPrivateOrdersStream(ctx context.Context, wsURL string) {
	s := &stream{
		name:   "maker-private-orders",
		url:    wsURL,
		logger: a.logger,
		handle: a.handleOrderFrame,
	}
	s.run(ctx)
}

func (a *Adapter) handleOrderFrame(data []byte) {
	var f orderFrame
	if err := decodeFrame(data, &f); err != nil {
		a.logger.Error("decode order frame", "error", err)
		return
	}

	price, _ := decimalFromWire(f.Price)
	cumQty, _ := decimalFromWire(f.CumQty)
	remainQty, _ := decimalFromWire(f.RemainQty)
	side := types.Buy
	if f.Side == "sell" || f.Side == "SELL" {
		side = types.Sell
	}

	fill := types.FillEvent{
		ID:        f.OrderID,
		Side:      side,
		Price:     price,
		CumQty:    cumQty,
		RemainQty: remainQty,
		Status:    types.OrderStatus(f.Status),
	}

	emit := false
	switch fill.Status {
	case types.StatusNew:
		// level already inserted at place time; nothing to do.
	case types.StatusFullyFilled:
		a.active.Remove(fill.ID)
		a.creditCounters(side, cumQty)
		emit = true
	case types.StatusPartiallyFilled:
		a.active.UpdateSize(fill.ID, remainQty)
		a.creditCounters(side, cumQty)
		emit = true
	case types.StatusCanceled, types.StatusRejected:
		a.active.Remove(fill.ID)
	}

	a.rec.RecordFill(fill)
	if emit {
		a.bus.Publish(types.OrderFill(fill))
	}
}

// RunBalanceStream connects the private-account stream, which pushes
// balance deltas as fills and deposits/withdrawals settle. The one-shot
// REST snapshot from FetchInitialBalances seeds the map at Boot; this
// stream is the only thing that mutates it afterward.
func (a *Adapter) RunBalanceStream(ctx context.Context, wsURL string) {
	s := &stream{
		name:   "maker-account",
		url:    wsURL,
		logger: a.logger,
		handle: a.handleAccountFrame,
	}
	s.run(ctx)
}

func (a *Adapter) handleAccountFrame(data []byte) {
	var f accountFrame
	if err := decodeFrame(data, &f); err != nil {
		a.logger.Error("decode account frame", "error", err)
		return
	}
	free, err1 := decimalFromWire(f.Free)
	locked, err2 := decimalFromWire(f.Locked)
	if err1 != nil || err2 != nil {
		a.logger.Error("decode account frame amounts", "asset", f.Asset)
		return
	}

	a.balMu.Lock()
	a.balances[f.Asset] = types.Balance{Free: free, Locked: locked}
	a.balMu.Unlock()
}

// creditCounters resolves the open question left unspecified by the
// source: amount_bought/amount_sold are credited the event's cum_qty as
// reported, not the delta against the order's previous cum_qty, so an
// order that reports several partial fills is credited its cumulative
// quantity at each one. The counters are a rough 45-minute volume gauge
// rather than an accounting ledger.
func (a *Adapter) creditCounters(side types.Side, qty decimal.Decimal) {
	if side == types.Buy {
		a.addBought(qty)
	} else {
		a.addSold(qty)
	}
}
