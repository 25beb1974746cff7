package maker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ladder-mm/internal/book"
	"ladder-mm/internal/eventbus"
	"ladder-mm/pkg/types"
)

// Recorder is the subset of the persistence layer the adapter writes to
// directly: every fill and every placement it observes.
type Recorder interface {
	RecordFill(types.FillEvent)
	RecordPlacement(orderID string, side types.Side, size, price decimal.Decimal)
	ClearAll()
}

// Adapter owns the maker venue's live state: public depth book, private
// active-orders book, and balances. It is the only thing in the program
// that mutates any of the three; everything else reads through its
// snapshot getters.
type Adapter struct {
	pair   string
	client *Client
	bus    *eventbus.Bus
	rec    Recorder
	logger *slog.Logger

	depth   *book.Book
	active  *book.ActiveOrders
	placeMu sync.Mutex // serializes place_limit so signing timestamps stay monotone

	balMu    sync.RWMutex
	balances types.Balances

	counterMu     sync.Mutex
	amountBought  decimal.Decimal
	amountSold    decimal.Decimal

	listenKeyMu sync.RWMutex
	listenKey   string
}

// New constructs an Adapter. Balances start empty; callers must call
// FetchInitialBalances during Boot before the ladder can place anything.
func New(pair string, client *Client, bus *eventbus.Bus, rec Recorder, logger *slog.Logger) *Adapter {
	return &Adapter{
		pair:     pair,
		client:   client,
		bus:      bus,
		rec:      rec,
		logger:   logger.With("component", "maker"),
		depth:    book.New(),
		active:   book.NewActiveOrders(),
		balances: make(types.Balances),
	}
}

// OrderBook returns a snapshot of the public depth book. Never blocks.
func (a *Adapter) OrderBook() types.OrderBook {
	return a.depth.Snapshot()
}

// ActiveOrders returns a snapshot of our resting orders.
func (a *Adapter) ActiveOrders() types.ActiveOrders {
	return a.active.Snapshot()
}

// Balances returns a snapshot of current balances.
func (a *Adapter) Balances() types.Balances {
	a.balMu.RLock()
	defer a.balMu.RUnlock()
	return a.balances.Clone()
}

// FetchInitialBalances performs the one-shot REST snapshot at Boot.
func (a *Adapter) FetchInitialBalances(ctx context.Context) error {
	bal, err := a.client.FetchBalances(ctx)
	if err != nil {
		return err
	}
	a.balMu.Lock()
	a.balances = bal
	a.balMu.Unlock()
	return nil
}

// PlaceLimit places a single limit order, serialized against any other
// in-flight placement so HMAC-signed timestamps stay monotone. Returns
// ("", false) on rejection; the caller skips the in-memory mutation in
// that case, per the Result-typed RPC design.
func (a *Adapter) PlaceLimit(ctx context.Context, side types.Side, size, price decimal.Decimal) (orderID string, ok bool) {
	a.placeMu.Lock()
	defer a.placeMu.Unlock()

	id, placed, err := a.client.PlaceLimit(ctx, side, size, price)
	if err != nil {
		a.logger.Error("place_limit transport failure", "error", err, "side", side)
		return "", false
	}
	if !placed {
		return "", false
	}
	if id == "" {
		id = uuid.NewString()
	}

	a.active.Insert(side, types.PriceLevel{ID: id, Price: price, Size: size})
	a.rec.RecordPlacement(id, side, size, price)
	return id, true
}

// Cancel cancels a single order by ID. Idempotent: cancelling an
// already-gone order returns (false) without altering state, matching the
// maker venue's own idempotent semantics for unknown IDs.
func (a *Adapter) Cancel(ctx context.Context, orderID string) (ok bool) {
	removed, err := a.client.Cancel(ctx, orderID)
	if err != nil {
		a.logger.Error("cancel transport failure", "error", err, "order_id", orderID)
		return false
	}
	if !removed {
		return false
	}
	// In-memory removal happens immediately, without waiting on the
	// private-orders stream to confirm — that stream will asynchronously
	// reconcile any discrepancy, but there is no reason to block on it here.
	a.active.Remove(orderID)
	return true
}

// CancelAll best-effort cancels every resting order and clears the
// in-memory ladder, used by Boot and the 30-minute ladder reset.
func (a *Adapter) CancelAll(ctx context.Context) error {
	if err := a.client.CancelAll(ctx, a.pair); err != nil {
		return err
	}
	a.active = book.NewActiveOrders()
	a.rec.ClearAll()
	return nil
}

// AmountBoughtSold returns the running counters since the last 45-minute
// reset.
func (a *Adapter) AmountBoughtSold() (bought, sold decimal.Decimal) {
	a.counterMu.Lock()
	defer a.counterMu.Unlock()
	return a.amountBought, a.amountSold
}

// ResetCounters zeroes amount_bought/amount_sold. Called by the
// Supervisor's 45-minute periodic timer.
func (a *Adapter) ResetCounters() {
	a.counterMu.Lock()
	defer a.counterMu.Unlock()
	a.amountBought = decimal.Zero
	a.amountSold = decimal.Zero
}

func (a *Adapter) addBought(qty decimal.Decimal) {
	a.counterMu.Lock()
	a.amountBought = a.amountBought.Add(qty)
	a.counterMu.Unlock()
}

func (a *Adapter) addSold(qty decimal.Decimal) {
	a.counterMu.Lock()
	a.amountSold = a.amountSold.Add(qty)
	a.counterMu.Unlock()
}
