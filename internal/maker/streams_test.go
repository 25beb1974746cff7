package maker

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"ladder-mm/internal/eventbus"
	"ladder-mm/pkg/types"

	"github.com/shopspring/decimal"
)

type fakeRecorder struct {
	fills      []types.FillEvent
	placements int
}

func (f *fakeRecorder) RecordFill(fill types.FillEvent) { f.fills = append(f.fills, fill) }
func (f *fakeRecorder) RecordPlacement(string, types.Side, decimal.Decimal, decimal.Decimal) {
	f.placements++
}
func (f *fakeRecorder) ClearAll() {}

func testAdapter() (*Adapter, *eventbus.Bus, *fakeRecorder) {
	bus := eventbus.New(8)
	rec := &fakeRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New("RMVUSDT", nil, bus, rec, logger), bus, rec
}

func TestHandleDepthFramePublishesOnChange(t *testing.T) {
	t.Parallel()

	a, bus, _ := testAdapter()
	payload, _ := json.Marshal(depthFrame{
		Asks: []wireLevel{{Price: "101", Size: "10"}},
		Bids: []wireLevel{{Price: "99", Size: "10"}},
	})

	a.handleDepthFrame(payload)

	select {
	case ev := <-bus.Events():
		if ev.Kind != types.KindDepthUpdate || ev.Venue != types.VenueMaker {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a depth-update event to be published")
	}
}

func TestHandleDepthFrameSuppressesDuplicate(t *testing.T) {
	t.Parallel()

	a, bus, _ := testAdapter()
	payload, _ := json.Marshal(depthFrame{
		Asks: []wireLevel{{Price: "101", Size: "10"}},
		Bids: []wireLevel{{Price: "99", Size: "10"}},
	})

	a.handleDepthFrame(payload)
	<-bus.Events() // drain the first publish

	a.handleDepthFrame(payload)
	select {
	case ev := <-bus.Events():
		t.Fatalf("expected no second publish for an identical book, got %+v", ev)
	default:
	}
}

func TestHandleOrderFrameFullyFilledRemovesAndEmits(t *testing.T) {
	t.Parallel()

	a, bus, rec := testAdapter()
	a.active.Insert(types.Buy, types.PriceLevel{ID: "o1", Price: decimal.RequireFromString("99"), Size: decimal.RequireFromString("10")})

	payload, _ := json.Marshal(orderFrame{
		OrderID: "o1", Side: "buy", Price: "99", CumQty: "10", RemainQty: "0", Status: int(types.StatusFullyFilled),
	})
	a.handleOrderFrame(payload)

	if len(a.ActiveOrders().Bids) != 0 {
		t.Fatal("expected the filled order to be removed from the active ladder")
	}
	bought, _ := a.AmountBoughtSold()
	if !bought.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("amountBought = %s, want 10", bought)
	}
	if len(rec.fills) != 1 {
		t.Fatalf("expected one recorded fill, got %d", len(rec.fills))
	}

	select {
	case ev := <-bus.Events():
		if ev.Kind != types.KindOrderFill || ev.Fill.ID != "o1" {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected an order-fill event to be published")
	}
}

func TestHandleOrderFrameCanceledRemovesWithoutEmitting(t *testing.T) {
	t.Parallel()

	a, bus, _ := testAdapter()
	a.active.Insert(types.Sell, types.PriceLevel{ID: "o2", Price: decimal.RequireFromString("101"), Size: decimal.RequireFromString("5")})

	payload, _ := json.Marshal(orderFrame{OrderID: "o2", Side: "sell", Status: int(types.StatusCanceled)})
	a.handleOrderFrame(payload)

	if len(a.ActiveOrders().Asks) != 0 {
		t.Fatal("expected the canceled order to be removed")
	}
	select {
	case ev := <-bus.Events():
		t.Fatalf("expected no event for a cancel, got %+v", ev)
	default:
	}
}

func TestHandleAccountFrameUpdatesBalance(t *testing.T) {
	t.Parallel()

	a, _, _ := testAdapter()
	payload, _ := json.Marshal(accountFrame{Asset: "RMV", Free: "1000", Locked: "50"})
	a.handleAccountFrame(payload)

	bal := a.Balances()["RMV"]
	if !bal.Free.Equal(decimal.RequireFromString("1000")) || !bal.Locked.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("unexpected balance: %+v", bal)
	}
}
