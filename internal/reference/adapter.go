// Package reference implements the ReferenceVenueAdapter: the deeper,
// more-liquid exchange used only to anchor the cross-venue fair price.
// It is public-only — no credentials, no placement, no active orders —
// and performs an out-of-band handshake to obtain a short-lived streaming
// endpoint before connecting.
package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"ladder-mm/internal/book"
	"ladder-mm/internal/eventbus"
	"ladder-mm/pkg/types"
)

// reconnectBackoff matches the maker venue's fixed 5-second cadence — the
// same infinite-retry, no-exponential-backoff contract applies to both
// streams in this design.
const reconnectBackoff = 5 * time.Second

// handshakeResponse is the wire shape of POST /api/v1/bullet-public.
type handshakeResponse struct {
	Data struct {
		Token           string `json:"token"`
		InstanceServers []struct {
			Endpoint string `json:"endpoint"`
		} `json:"instanceServers"`
	} `json:"data"`
}

// depthMessage is the JSON frame shape for /spotMarket/level2Depth50:{PAIR}.
type depthMessage struct {
	Data struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
	} `json:"data"`
}

// Adapter owns the reference venue's public depth book only.
type Adapter struct {
	pair    string
	restURL string
	http    *resty.Client
	bus     *eventbus.Bus
	logger  *slog.Logger

	depth *book.Book
}

// New constructs a reference Adapter.
func New(pair, restURL string, bus *eventbus.Bus, logger *slog.Logger) *Adapter {
	return &Adapter{
		pair:    pair,
		restURL: restURL,
		http:    resty.New().SetBaseURL(restURL).SetTimeout(10 * time.Second),
		bus:     bus,
		logger:  logger.With("component", "reference"),
		depth:   book.New(),
	}
}

// OrderBook returns a snapshot of the current public depth book.
func (a *Adapter) OrderBook() types.OrderBook {
	return a.depth.Snapshot()
}

// handshake obtains a short-lived token and streaming endpoint. It is
// called once before the first connection and again on every reconnect,
// since the token is short-lived and must not be assumed still valid
// after a drop.
func (a *Adapter) handshake(ctx context.Context) (endpoint, token string, err error) {
	var result handshakeResponse
	resp, err := a.http.R().
		SetContext(ctx).
		SetResult(&result).
		Post("/api/v1/bullet-public")
	if err != nil {
		return "", "", fmt.Errorf("bullet-public: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", "", fmt.Errorf("bullet-public: status %d", resp.StatusCode())
	}
	if len(result.Data.InstanceServers) == 0 {
		return "", "", fmt.Errorf("bullet-public: no instance servers returned")
	}
	return result.Data.InstanceServers[0].Endpoint, result.Data.Token, nil
}

// RunDepthStream re-handshakes and connects on every (re)connect attempt,
// with a fixed 5-second backoff and infinite retries on any error.
func (a *Adapter) RunDepthStream(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := a.connectAndRead(ctx); err != nil && ctx.Err() == nil {
			a.logger.Warn("reference stream disconnected, reconnecting",
				"error", err, "backoff", reconnectBackoff)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (a *Adapter) connectAndRead(ctx context.Context) error {
	endpoint, token, err := a.handshake(ctx)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}

	wsURL := fmt.Sprintf("%s?token=%s", endpoint, token)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	sub := map[string]interface{}{
		"type":  "subscribe",
		"topic": fmt.Sprintf("/spotMarket/level2Depth50:%s", a.pair),
	}
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	a.logger.Info("reference stream connected")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		a.handleMessage(msg)
	}
}

func (a *Adapter) handleMessage(data []byte) {
	var m depthMessage
	if err := json.Unmarshal(data, &m); err != nil {
		a.logger.Debug("ignoring non-depth frame", "error", err)
		return
	}
	if len(m.Data.Bids) == 0 && len(m.Data.Asks) == 0 {
		return
	}

	next := types.OrderBook{
		Asks: parsePairs(m.Data.Asks),
		Bids: parsePairs(m.Data.Bids),
	}
	if changed := a.depth.Replace(next); changed {
		a.bus.Publish(types.DepthUpdate(types.VenueReference))
	}
}

func parsePairs(pairs [][2]string) []types.PriceLevel {
	out := make([]types.PriceLevel, 0, len(pairs))
	for _, p := range pairs {
		price, err := decimal.NewFromString(p[0])
		if err != nil {
			continue
		}
		size, err := decimal.NewFromString(p[1])
		if err != nil {
			continue
		}
		out = append(out, types.PriceLevel{Price: price, Size: size})
	}
	return out
}
