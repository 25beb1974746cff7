// ws.go implements the maker venue's three WebSocket streams: public depth,
// private orders, and private account. All three carry length-prefixed
// frames (a 4-byte big-endian length header followed by the payload; each
// payload is decoded as JSON, and there is no protobuf decoder here)
// multiplexed onto however many connections the venue chooses to
// use per stream; each stream reconnects independently with a fixed
// 5-second backoff and an infinite retry loop, never exponential — the
// maker venue's own integration guide asks for exactly that cadence so a
// blip doesn't turn into a multi-minute outage while clients back off.
package maker

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"ladder-mm/pkg/types"
)

// reconnectBackoff is fixed, not exponential, per the maker venue's stream
// contract.
const reconnectBackoff = 5 * time.Second

// depthFrame is the decoded payload of a public-depth frame. Only the frame
// boundary (4-byte length prefix) is handled by this package; the payload
// is unmarshaled as JSON with the field names below. A protobuf-encoded
// payload fails to decode and the frame is dropped with a logged error.
type depthFrame struct {
	Bids []wireLevel `json:"bids"`
	Asks []wireLevel `json:"asks"`
}

type wireLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// orderFrame is the decoded payload of a private-orders frame.
type orderFrame struct {
	OrderID   string `json:"orderId"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	CumQty    string `json:"cumQty"`
	RemainQty string `json:"remainQty"`
	Status    int    `json:"status"`
}

// accountFrame is the decoded payload of a private-account frame: a
// balance delta for a single asset.
type accountFrame struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// stream manages one long-running WebSocket connection with fixed-backoff
// reconnect. handle is invoked once per decoded frame payload.
type stream struct {
	name   string
	url    string
	logger *slog.Logger
	handle func([]byte)
}

// run blocks until ctx is cancelled, reconnecting forever on any error.
func (s *stream) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.connectAndRead(ctx); err != nil && ctx.Err() == nil {
			s.logger.Warn("stream disconnected, reconnecting",
				"stream", s.name, "error", err, "backoff", reconnectBackoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (s *stream) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	s.logger.Info("stream connected", "stream", s.name)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		for _, frame := range splitFrames(msg) {
			s.handle(frame)
		}
	}
}

// splitFrames decodes zero or more 4-byte-length-prefixed frames out of a
// single WebSocket message. The maker venue may batch multiple logical
// frames into one physical message.
func splitFrames(data []byte) [][]byte {
	var frames [][]byte
	buf := data
	for len(buf) >= 4 {
		n := binary.BigEndian.Uint32(buf[:4])
		buf = buf[4:]
		if uint32(len(buf)) < n {
			break
		}
		frames = append(frames, buf[:n])
		buf = buf[n:]
	}
	if len(frames) == 0 && len(data) > 4 {
		// Tolerate an unprefixed single frame rather than silently
		// dropping every message if the length header is ever omitted.
		// A message no longer than a bare length header carries no
		// payload and is dropped.
		frames = append(frames, data)
	}
	return frames
}

func decodeFrame(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}

func parseLevels(levels []wireLevel) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, len(levels))
	for _, l := range levels {
		price, err := decimalFromWire(l.Price)
		if err != nil {
			continue
		}
		size, err := decimalFromWire(l.Size)
		if err != nil {
			continue
		}
		out = append(out, types.PriceLevel{Price: price, Size: size})
	}
	return out
}

func decimalFromWire(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
