package eventbus

import (
	"testing"

	"ladder-mm/pkg/types"
)

func TestBusPublishAndReceive(t *testing.T) {
	t.Parallel()

	b := New(4)
	ev := types.DepthUpdate(types.VenueMaker)

	if ok := b.Publish(ev); !ok {
		t.Fatal("expected Publish to succeed")
	}

	got := <-b.Events()
	if got.Kind != types.KindDepthUpdate || got.Venue != types.VenueMaker {
		t.Fatalf("got %+v, want %+v", got, ev)
	}
}

func TestBusDefaultCapacity(t *testing.T) {
	t.Parallel()

	b := New(0)
	if cap(b.ch) != DefaultCapacity {
		t.Fatalf("capacity = %d, want %d", cap(b.ch), DefaultCapacity)
	}
}

func TestBusCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	b := New(1)
	b.Close()
	b.Close() // must not panic

	if _, open := <-b.Events(); open {
		t.Fatal("expected channel to be closed")
	}
}

func TestBusPublishAfterCloseReturnsFalse(t *testing.T) {
	t.Parallel()

	b := New(1)
	b.Close()

	if ok := b.Publish(types.DepthUpdate(types.VenueReference)); ok {
		t.Fatal("expected Publish on a closed bus to report false")
	}
}
