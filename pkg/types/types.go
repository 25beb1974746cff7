// Package types defines the shared data structures used across all packages.
//
// This package is the common vocabulary for the market maker — price levels,
// order books, balances, and the events that flow through the event bus. It
// has no dependencies on internal packages, so it can be imported by any
// layer, including the venue adapters and the pure pricing functions.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Side represents the direction of an order: Buy or Sell.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// OrderStatus enumerates the lifecycle states reported on the private
// orders stream.
type OrderStatus int

const (
	StatusNew             OrderStatus = 1
	StatusFullyFilled     OrderStatus = 2
	StatusPartiallyFilled OrderStatus = 3
	StatusCanceled        OrderStatus = 4
	StatusRejected        OrderStatus = 5
)

// Venue identifies which order book a depth update belongs to.
type Venue string

const (
	VenueMaker     Venue = "maker"
	VenueReference Venue = "reference"
)

// ————————————————————————————————————————————————————————————————————————
// Price levels and order books
// ————————————————————————————————————————————————————————————————————————

// PriceLevel is a single resting order or public book level. ID is empty
// for public-book levels (they carry no identity of their own) and nonempty
// for ActiveOrders levels, where it is the maker venue's order ID.
type PriceLevel struct {
	ID    string
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Equal compares two levels for exact decimal equality, including ID.
func (l PriceLevel) Equal(o PriceLevel) bool {
	return l.ID == o.ID && l.Price.Equal(o.Price) && l.Size.Equal(o.Size)
}

// OrderBook is an ordered ladder of asks and bids. Asks ascend by price,
// bids descend by price; the same shape is reused for ActiveOrders, the
// maker venue's resting orders.
type OrderBook struct {
	Asks []PriceLevel
	Bids []PriceLevel
}

// BestAsk returns the lowest ask, or the zero value and false if there are
// no asks.
func (b OrderBook) BestAsk() (PriceLevel, bool) {
	if len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	return b.Asks[0], true
}

// BestBid returns the highest bid, or the zero value and false if there are
// no bids.
func (b OrderBook) BestBid() (PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// Empty reports whether either side of the book has no levels.
func (b OrderBook) Empty() bool {
	return len(b.Asks) == 0 || len(b.Bids) == 0
}

// Mid returns (bestAsk+bestBid)/2, or the zero value and false if either
// side is empty.
func (b OrderBook) Mid() (decimal.Decimal, bool) {
	ask, ok := b.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Price.Add(bid.Price).Div(two), true
}

var two = decimal.NewFromInt(2)

// Equal reports whether two books are pointwise identical: same levels, in
// the same order, on both sides. Used to suppress no-op depth updates.
func (b OrderBook) Equal(o OrderBook) bool {
	return levelsEqual(b.Asks, o.Asks) && levelsEqual(b.Bids, o.Bids)
}

func levelsEqual(a, b []PriceLevel) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy, safe to hand out as an immutable snapshot.
func (b OrderBook) Clone() OrderBook {
	out := OrderBook{
		Asks: make([]PriceLevel, len(b.Asks)),
		Bids: make([]PriceLevel, len(b.Bids)),
	}
	copy(out.Asks, b.Asks)
	copy(out.Bids, b.Bids)
	return out
}

// ActiveOrders is the maker venue's resting-order book. It shares OrderBook's
// shape and ordering rules but is maintained incrementally rather than
// replaced wholesale.
type ActiveOrders = OrderBook

// ————————————————————————————————————————————————————————————————————————
// Balances
// ————————————————————————————————————————————————————————————————————————

// Balance is one asset's free and locked quantity. Both are non-negative.
type Balance struct {
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// Total returns Free+Locked.
func (b Balance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

// Balances maps asset symbol to its Balance.
type Balances map[string]Balance

// Clone returns a shallow copy of the map (Balance is a value type).
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// ————————————————————————————————————————————————————————————————————————
// Fills and events
// ————————————————————————————————————————————————————————————————————————

// FillEvent is a decoded private-orders-stream message.
type FillEvent struct {
	ID         string
	Side       Side
	Price      decimal.Decimal
	CumQty     decimal.Decimal
	RemainQty  decimal.Decimal
	Status     OrderStatus
	ReceivedAt time.Time
}

// QuoteEventKind tags the variant carried by a QuoteEvent.
type QuoteEventKind int

const (
	KindDepthUpdate QuoteEventKind = iota
	KindOrderFill
)

// QuoteEvent is the tagged union of messages flowing through the EventBus.
// Kind determines which of Venue / Fill is meaningful; the zero value never
// appears on the bus since Kind must be set explicitly by the producer.
type QuoteEvent struct {
	Kind  QuoteEventKind
	Venue Venue     // valid when Kind == KindDepthUpdate
	Fill  FillEvent // valid when Kind == KindOrderFill
}

// DepthUpdate constructs a depth-change event for the given venue.
func DepthUpdate(v Venue) QuoteEvent {
	return QuoteEvent{Kind: KindDepthUpdate, Venue: v}
}

// OrderFill constructs a fill event wrapping the given FillEvent.
func OrderFill(f FillEvent) QuoteEvent {
	return QuoteEvent{Kind: KindOrderFill, Fill: f}
}

// ————————————————————————————————————————————————————————————————————————
// Computed snapshots
// ————————————————————————————————————————————————————————————————————————

// MarketSnapshot is a point-in-time computed view used for logging,
// dashboards, and persistence — never consulted by the reconciliation logic
// itself, which always recomputes from the live books.
type MarketSnapshot struct {
	Mid       decimal.Decimal
	SpreadPct decimal.Decimal
	Depth     decimal.Decimal
	FairPrice decimal.Decimal
	Inventory decimal.Decimal
	AskQuote  decimal.Decimal
	BidQuote  decimal.Decimal
	Timestamp time.Time
}
