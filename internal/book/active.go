package book

import (
	"sync"

	"github.com/shopspring/decimal"

	"ladder-mm/pkg/types"
)

// ActiveOrders guards the maker venue's resting-order ladder. Unlike Book,
// it is maintained incrementally: Insert/Remove/UpdateSize mutate the
// ladder in place rather than replacing it wholesale, since it is fed by a
// sequence of place/cancel/fill operations rather than periodic snapshots.
type ActiveOrders struct {
	mu   sync.RWMutex
	book types.ActiveOrders
}

// NewActiveOrders returns an empty ActiveOrders ladder.
func NewActiveOrders() *ActiveOrders {
	return &ActiveOrders{}
}

// Snapshot returns a deep copy, safe for the caller to read without holding
// any lock.
func (a *ActiveOrders) Snapshot() types.ActiveOrders {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.book.Clone()
}

// Insert adds level to the given side, preserving sort order (ascending for
// asks, descending for bids) and refusing to create a duplicate price on
// that side.
func (a *ActiveOrders) Insert(side types.Side, level types.PriceLevel) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if side == types.Sell {
		a.book.Asks = insertSorted(a.book.Asks, level, true)
	} else {
		a.book.Bids = insertSorted(a.book.Bids, level, false)
	}
}

// insertSorted inserts level into levels, keeping ascending order when asc
// is true and descending order otherwise. A level already present at the
// same price is left untouched (no duplicate prices on one side).
func insertSorted(levels []types.PriceLevel, level types.PriceLevel, asc bool) []types.PriceLevel {
	less := func(p, q decimal.Decimal) bool {
		if asc {
			return p.LessThan(q)
		}
		return p.GreaterThan(q)
	}

	idx := len(levels)
	for i, l := range levels {
		if l.Price.Equal(level.Price) {
			return levels // duplicate price on this side: no-op
		}
		if less(level.Price, l.Price) {
			idx = i
			break
		}
	}

	levels = append(levels, types.PriceLevel{})
	copy(levels[idx+1:], levels[idx:])
	levels[idx] = level
	return levels
}

// Remove deletes the level with the given id from both sides (an id is
// unique across both sides, so at most one side is touched). Reports
// whether a level was actually removed — removing an unknown id is a
// no-op, keeping cancel-of-unknown-order idempotent at this layer too.
func (a *ActiveOrders) Remove(id string) (removed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if idx := indexByID(a.book.Asks, id); idx >= 0 {
		a.book.Asks = append(a.book.Asks[:idx], a.book.Asks[idx+1:]...)
		return true
	}
	if idx := indexByID(a.book.Bids, id); idx >= 0 {
		a.book.Bids = append(a.book.Bids[:idx], a.book.Bids[idx+1:]...)
		return true
	}
	return false
}

// UpdateSize sets the size of the level with the given id (both sides
// searched), used for PARTIALLY_FILLED events where size becomes the
// remaining quantity. Reports whether a level was found.
func (a *ActiveOrders) UpdateSize(id string, size decimal.Decimal) (found bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if idx := indexByID(a.book.Asks, id); idx >= 0 {
		a.book.Asks[idx].Size = size
		return true
	}
	if idx := indexByID(a.book.Bids, id); idx >= 0 {
		a.book.Bids[idx].Size = size
		return true
	}
	return false
}

func indexByID(levels []types.PriceLevel, id string) int {
	for i, l := range levels {
		if l.ID == id {
			return i
		}
	}
	return -1
}
