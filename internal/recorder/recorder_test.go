package recorder

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"ladder-mm/pkg/types"

	"github.com/shopspring/decimal"
)

func testRecorder(t *testing.T) *Recorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec, err := Open(":memory:", 1, logger)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestRecordPlacementThenFullFillClearsOurOrder(t *testing.T) {
	t.Parallel()

	rec := testRecorder(t)
	rec.RecordPlacement("o1", types.Sell, decimal.RequireFromString("10"), decimal.RequireFromString("101"))

	var count int64
	rec.db.Model(&OurOrder{}).Where("order_id = ?", "o1").Count(&count)
	if count != 1 {
		t.Fatalf("expected our_orders to contain the placement, count=%d", count)
	}

	rec.RecordFill(types.FillEvent{
		ID: "o1", Side: types.Sell, Price: decimal.RequireFromString("101"),
		CumQty: decimal.RequireFromString("10"), RemainQty: decimal.Zero,
		Status: types.StatusFullyFilled, ReceivedAt: time.Now(),
	})

	rec.db.Model(&OurOrder{}).Where("order_id = ?", "o1").Count(&count)
	if count != 0 {
		t.Fatalf("expected our_orders to be cleared after a full fill, count=%d", count)
	}

	var orderRows int64
	rec.db.Model(&Order{}).Where("order_id = ?", "o1").Count(&orderRows)
	if orderRows != 1 {
		t.Fatalf("expected one persisted fill row, got %d", orderRows)
	}
}

func TestRecordFillPartialUpdatesRemainingSize(t *testing.T) {
	t.Parallel()

	rec := testRecorder(t)
	rec.RecordPlacement("o2", types.Buy, decimal.RequireFromString("10"), decimal.RequireFromString("99"))

	rec.RecordFill(types.FillEvent{
		ID: "o2", Side: types.Buy, Price: decimal.RequireFromString("99"),
		CumQty: decimal.RequireFromString("4"), RemainQty: decimal.RequireFromString("6"),
		Status: types.StatusPartiallyFilled, ReceivedAt: time.Now(),
	})

	var row OurOrder
	if err := rec.db.Where("order_id = ?", "o2").First(&row).Error; err != nil {
		t.Fatalf("expected our_orders row to survive a partial fill: %v", err)
	}
	if !row.Size.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("size = %s, want 6", row.Size)
	}
}

func TestRecordMarketStateAndBooks(t *testing.T) {
	t.Parallel()

	rec := testRecorder(t)
	rec.RecordMarketState(types.MarketSnapshot{Mid: decimal.RequireFromString("100"), Timestamp: time.Now()})

	var stateCount int64
	rec.db.Model(&MarketState{}).Count(&stateCount)
	if stateCount != 1 {
		t.Fatalf("expected one market_state row, got %d", stateCount)
	}

	book := types.OrderBook{
		Asks: []types.PriceLevel{{Price: decimal.RequireFromString("101"), Size: decimal.RequireFromString("1")}},
		Bids: []types.PriceLevel{{Price: decimal.RequireFromString("99"), Size: decimal.RequireFromString("1")}},
	}
	rec.RecordMakerBook(book)
	rec.RecordReferenceBook(book)

	var makerCount, refCount int64
	rec.db.Table("maker_orderbook").Count(&makerCount)
	rec.db.Table("reference_orderbook").Count(&refCount)
	if makerCount != 2 || refCount != 2 {
		t.Fatalf("expected 2 rows per book table, got maker=%d reference=%d", makerCount, refCount)
	}
}

func TestRecordBookSkipsEmptyBook(t *testing.T) {
	t.Parallel()

	rec := testRecorder(t)
	rec.RecordMakerBook(types.OrderBook{})

	var count int64
	rec.db.Table("maker_orderbook").Count(&count)
	if count != 0 {
		t.Fatalf("expected no rows for an empty book, got %d", count)
	}
}
