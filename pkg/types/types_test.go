package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func lvl(price, size string) PriceLevel {
	return PriceLevel{Price: dec(price), Size: dec(size)}
}

func TestOrderBookMid(t *testing.T) {
	t.Parallel()

	book := OrderBook{
		Asks: []PriceLevel{lvl("101", "10")},
		Bids: []PriceLevel{lvl("99", "10")},
	}

	mid, ok := book.Mid()
	if !ok {
		t.Fatal("expected ok")
	}
	if !mid.Equal(dec("100")) {
		t.Fatalf("mid = %s, want 100", mid)
	}
}

func TestOrderBookMidEmptySide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		book OrderBook
	}{
		{"no asks", OrderBook{Bids: []PriceLevel{lvl("99", "1")}}},
		{"no bids", OrderBook{Asks: []PriceLevel{lvl("101", "1")}}},
		{"empty", OrderBook{}},
	}

	for _, tt := range tests {
		if _, ok := tt.book.Mid(); ok {
			t.Errorf("%s: expected !ok", tt.name)
		}
	}
}

func TestOrderBookBestAskBid(t *testing.T) {
	t.Parallel()

	book := OrderBook{
		Asks: []PriceLevel{lvl("101", "1"), lvl("102", "1")},
		Bids: []PriceLevel{lvl("99", "1"), lvl("98", "1")},
	}

	ask, ok := book.BestAsk()
	if !ok || !ask.Price.Equal(dec("101")) {
		t.Fatalf("BestAsk = %+v, ok=%v", ask, ok)
	}
	bid, ok := book.BestBid()
	if !ok || !bid.Price.Equal(dec("99")) {
		t.Fatalf("BestBid = %+v, ok=%v", bid, ok)
	}
}

func TestOrderBookEmpty(t *testing.T) {
	t.Parallel()

	if !(OrderBook{}).Empty() {
		t.Error("zero-value book should be empty")
	}
	if (OrderBook{Asks: []PriceLevel{lvl("1", "1")}, Bids: []PriceLevel{lvl("1", "1")}}).Empty() {
		t.Error("book with both sides populated should not be empty")
	}
	if !(OrderBook{Asks: []PriceLevel{lvl("1", "1")}}).Empty() {
		t.Error("book missing bids should be empty")
	}
}

func TestOrderBookEqual(t *testing.T) {
	t.Parallel()

	a := OrderBook{Asks: []PriceLevel{lvl("101", "1")}, Bids: []PriceLevel{lvl("99", "1")}}
	b := OrderBook{Asks: []PriceLevel{lvl("101", "1")}, Bids: []PriceLevel{lvl("99", "1")}}
	c := OrderBook{Asks: []PriceLevel{lvl("101", "2")}, Bids: []PriceLevel{lvl("99", "1")}}

	if !a.Equal(b) {
		t.Error("expected a.Equal(b)")
	}
	if a.Equal(c) {
		t.Error("expected !a.Equal(c)")
	}
}

func TestOrderBookClone(t *testing.T) {
	t.Parallel()

	orig := OrderBook{Asks: []PriceLevel{lvl("101", "1")}, Bids: []PriceLevel{lvl("99", "1")}}
	clone := orig.Clone()
	if !orig.Equal(clone) {
		t.Fatal("clone should equal original")
	}

	clone.Asks[0].Size = dec("999")
	if orig.Asks[0].Size.Equal(dec("999")) {
		t.Fatal("mutating the clone mutated the original")
	}
}

func TestBalanceTotal(t *testing.T) {
	t.Parallel()

	b := Balance{Free: dec("10"), Locked: dec("5")}
	if !b.Total().Equal(dec("15")) {
		t.Fatalf("Total() = %s, want 15", b.Total())
	}
}

func TestBalancesClone(t *testing.T) {
	t.Parallel()

	orig := Balances{"BTC": {Free: dec("1"), Locked: dec("0")}}
	clone := orig.Clone()
	clone["BTC"] = Balance{Free: dec("2"), Locked: dec("0")}

	if !orig["BTC"].Free.Equal(dec("1")) {
		t.Fatal("mutating the clone mutated the original map")
	}
}

func TestQuoteEventConstructors(t *testing.T) {
	t.Parallel()

	du := DepthUpdate(VenueMaker)
	if du.Kind != KindDepthUpdate || du.Venue != VenueMaker {
		t.Fatalf("DepthUpdate() = %+v", du)
	}

	fill := FillEvent{ID: "abc", Side: Buy, Status: StatusFullyFilled}
	of := OrderFill(fill)
	if of.Kind != KindOrderFill || of.Fill.ID != "abc" {
		t.Fatalf("OrderFill() = %+v", of)
	}
}
