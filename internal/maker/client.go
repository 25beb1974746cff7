// Package maker implements the MakerVenueAdapter: the primary exchange's
// public depth book, private active-orders book, and balances, plus the
// mutating place/cancel/cancel-all operations and the three streaming
// tasks that keep all of it current.
package maker

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"ladder-mm/pkg/types"
)

// restBalance is the wire shape of a single balance entry on the one-shot
// REST snapshot.
type restBalance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// restPlaceResponse is the wire shape of a successful place_limit response.
type restPlaceResponse struct {
	OrderID string `json:"orderId"`
}

// Client wraps a resty HTTP client with rate limiting and HMAC signing for
// the maker venue's REST surface. It never touches ActiveOrders or the
// book directly — that's the Adapter's job — it only talks to the wire.
type Client struct {
	http   *resty.Client
	auth   *Auth
	rl     *RateLimiter
	dryRun bool
	logger *slog.Logger
}

// NewClient creates a REST client with rate limiting and retry, retrying
// only on 5xx/network failures — a 4xx here is a rejected order, a value
// the caller must see, never a transient fault to paper over.
func NewClient(baseURL string, auth *Auth, dryRun bool, logger *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   httpClient,
		auth:   auth,
		rl:     NewRateLimiter(),
		dryRun: dryRun,
		logger: logger,
	}
}

func (c *Client) sign(method, endpoint string, query url.Values) map[string]string {
	sig, ts := c.auth.Sign(method, endpoint, query)
	return map[string]string{
		"X-MBX-APIKEY": c.auth.APIKey(),
		"X-Signature":  sig,
		"X-Timestamp":  fmt.Sprintf("%d", ts),
	}
}

// PlaceLimit places a single GTC limit order. Returns the remote order ID
// on a 200 response; returns ("", false, nil) on any non-200 response
// (PlaceRejected, not escalated) and ("", false, err) only for a genuine
// transport failure after retries are exhausted.
func (c *Client) PlaceLimit(ctx context.Context, side types.Side, size, price decimal.Decimal) (orderID string, ok bool, err error) {
	if c.dryRun {
		c.logger.Info("dry-run: would place order", "side", side, "size", size, "price", price)
		return "dry-run-" + time.Now().Format("150405.000000"), true, nil
	}
	if err := c.rl.Place.Wait(ctx); err != nil {
		return "", false, err
	}

	query := url.Values{
		"side":  {string(side)},
		"size":  {size.String()},
		"price": {price.String()},
	}
	headers := c.sign(http.MethodPost, "/api/v1/orders", query)

	var result restPlaceResponse
	resp, reqErr := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParamsFromValues(query).
		SetResult(&result).
		Post("/api/v1/orders")
	if reqErr != nil {
		return "", false, fmt.Errorf("place_limit: %w", reqErr)
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn("place_limit rejected", "status", resp.StatusCode(), "body", resp.String())
		return "", false, nil
	}
	return result.OrderID, true, nil
}

// Cancel cancels a single order by ID. Idempotent with respect to
// already-gone orders: the maker venue returns non-200 for an unknown
// order ID, which this reports as (false, nil), not an error.
func (c *Client) Cancel(ctx context.Context, orderID string) (ok bool, err error) {
	if c.dryRun {
		c.logger.Info("dry-run: would cancel order", "order_id", orderID)
		return true, nil
	}
	if err := c.rl.Cancel.Wait(ctx); err != nil {
		return false, err
	}

	query := url.Values{"orderId": {orderID}}
	headers := c.sign(http.MethodDelete, "/api/v1/orders", query)

	resp, reqErr := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParamsFromValues(query).
		Delete("/api/v1/orders")
	if reqErr != nil {
		return false, fmt.Errorf("cancel: %w", reqErr)
	}
	return resp.StatusCode() == http.StatusOK, nil
}

// CancelAll best-effort cancels every resting order on the pair. Used by
// Boot and the 30-minute ladder reset. A non-200 response is logged, not
// escalated; a failed rate-limiter wait or a transport failure is returned
// as an error.
func (c *Client) CancelAll(ctx context.Context, pair string) error {
	if c.dryRun {
		c.logger.Info("dry-run: would cancel all orders", "pair", pair)
		return nil
	}
	if err := c.rl.Cancel.Wait(ctx); err != nil {
		return err
	}

	query := url.Values{"symbol": {pair}}
	headers := c.sign(http.MethodDelete, "/api/v1/orders/all", query)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParamsFromValues(query).
		Delete("/api/v1/orders/all")
	if err != nil {
		return fmt.Errorf("cancel_all: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.logger.Warn("cancel_all non-200", "status", resp.StatusCode())
	}
	return nil
}

// FetchBalances fetches the one-shot REST balance snapshot used at Boot;
// all subsequent updates arrive over the private account stream.
func (c *Client) FetchBalances(ctx context.Context) (types.Balances, error) {
	if err := c.rl.Book.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	headers := c.sign(http.MethodGet, "/api/v1/account", query)

	var result []restBalance
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetResult(&result).
		Get("/api/v1/account")
	if err != nil {
		return nil, fmt.Errorf("fetch_balances: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch_balances: status %d: %s", resp.StatusCode(), resp.String())
	}

	out := make(types.Balances, len(result))
	for _, b := range result {
		free, _ := decimal.NewFromString(b.Free)
		locked, _ := decimal.NewFromString(b.Locked)
		out[b.Asset] = types.Balance{Free: free, Locked: locked}
	}
	return out, nil
}

// CreateListenKey obtains a listen key for the private account/orders
// stream, renewed by the 30-minute listen-key renewal task.
func (c *Client) CreateListenKey(ctx context.Context) (string, error) {
	headers := c.sign(http.MethodPost, "/api/v1/userDataStream", nil)

	var result struct {
		ListenKey string `json:"listenKey"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetResult(&result).
		Post("/api/v1/userDataStream")
	if err != nil {
		return "", fmt.Errorf("create_listen_key: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("create_listen_key: status %d", resp.StatusCode())
	}
	return result.ListenKey, nil
}

// RenewListenKey keeps the private stream's listen key alive.
func (c *Client) RenewListenKey(ctx context.Context, listenKey string) error {
	query := url.Values{"listenKey": {listenKey}}
	headers := c.sign(http.MethodPut, "/api/v1/userDataStream", query)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetQueryParamsFromValues(query).
		Put("/api/v1/userDataStream")
	if err != nil {
		return fmt.Errorf("renew_listen_key: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("renew_listen_key: status %d", resp.StatusCode())
	}
	return nil
}
