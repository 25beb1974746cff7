package book

import (
	"testing"

	"ladder-mm/pkg/types"

	"github.com/shopspring/decimal"
)

func level(id, price, size string) types.PriceLevel {
	return types.PriceLevel{ID: id, Price: decimal.RequireFromString(price), Size: decimal.RequireFromString(size)}
}

func TestActiveOrdersInsertKeepsOrder(t *testing.T) {
	t.Parallel()

	a := NewActiveOrders()
	a.Insert(types.Sell, level("ask-2", "102", "1"))
	a.Insert(types.Sell, level("ask-1", "101", "1"))
	a.Insert(types.Buy, level("bid-1", "99", "1"))
	a.Insert(types.Buy, level("bid-2", "98", "1"))

	snap := a.Snapshot()
	if len(snap.Asks) != 2 || snap.Asks[0].ID != "ask-1" || snap.Asks[1].ID != "ask-2" {
		t.Fatalf("asks not ascending: %+v", snap.Asks)
	}
	if len(snap.Bids) != 2 || snap.Bids[0].ID != "bid-1" || snap.Bids[1].ID != "bid-2" {
		t.Fatalf("bids not descending: %+v", snap.Bids)
	}
}

func TestActiveOrdersInsertDuplicatePriceIsNoOp(t *testing.T) {
	t.Parallel()

	a := NewActiveOrders()
	a.Insert(types.Sell, level("ask-1", "101", "1"))
	a.Insert(types.Sell, level("ask-2", "101", "5"))

	snap := a.Snapshot()
	if len(snap.Asks) != 1 || snap.Asks[0].ID != "ask-1" {
		t.Fatalf("expected the original level to survive, got %+v", snap.Asks)
	}
}

func TestActiveOrdersRemove(t *testing.T) {
	t.Parallel()

	a := NewActiveOrders()
	a.Insert(types.Sell, level("ask-1", "101", "1"))

	if !a.Remove("ask-1") {
		t.Fatal("expected Remove to report true for a known id")
	}
	if a.Remove("ask-1") {
		t.Fatal("expected Remove to report false for an already-removed id")
	}
	if len(a.Snapshot().Asks) != 0 {
		t.Fatal("expected asks to be empty after removal")
	}
}

func TestActiveOrdersUpdateSize(t *testing.T) {
	t.Parallel()

	a := NewActiveOrders()
	a.Insert(types.Buy, level("bid-1", "99", "10"))

	if !a.UpdateSize("bid-1", decimal.RequireFromString("4")) {
		t.Fatal("expected UpdateSize to find the level")
	}
	if !a.Snapshot().Bids[0].Size.Equal(decimal.RequireFromString("4")) {
		t.Fatalf("size not updated: %+v", a.Snapshot().Bids[0])
	}
	if a.UpdateSize("unknown", decimal.RequireFromString("1")) {
		t.Fatal("expected UpdateSize to report false for an unknown id")
	}
}
