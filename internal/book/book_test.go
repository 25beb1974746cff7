package book

import (
	"testing"

	"ladder-mm/pkg/types"

	"github.com/shopspring/decimal"
)

func lvl(price, size string) types.PriceLevel {
	return types.PriceLevel{Price: decimal.RequireFromString(price), Size: decimal.RequireFromString(size)}
}

func TestBookReplaceReportsChange(t *testing.T) {
	t.Parallel()

	b := New()
	first := types.OrderBook{Asks: []types.PriceLevel{lvl("101", "1")}, Bids: []types.PriceLevel{lvl("99", "1")}}

	if changed := b.Replace(first); !changed {
		t.Fatal("first replace on an empty book should report changed")
	}
	if changed := b.Replace(first); changed {
		t.Fatal("replacing with an identical book should report unchanged")
	}

	second := types.OrderBook{Asks: []types.PriceLevel{lvl("102", "1")}, Bids: []types.PriceLevel{lvl("99", "1")}}
	if changed := b.Replace(second); !changed {
		t.Fatal("replacing with a different book should report changed")
	}
	if !b.Snapshot().Equal(second) {
		t.Fatal("snapshot should reflect the latest replace")
	}
}

func TestBookSnapshotIsIndependentCopy(t *testing.T) {
	t.Parallel()

	b := New()
	b.Replace(types.OrderBook{Asks: []types.PriceLevel{lvl("101", "1")}, Bids: []types.PriceLevel{lvl("99", "1")}})

	snap := b.Snapshot()
	snap.Asks[0].Size = decimal.RequireFromString("999")

	if b.Snapshot().Asks[0].Size.Equal(decimal.RequireFromString("999")) {
		t.Fatal("mutating a snapshot mutated the book's internal state")
	}
}
