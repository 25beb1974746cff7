package maker

import (
	"net/url"
	"testing"
)

func TestSignIsDeterministicForSameTimestamp(t *testing.T) {
	t.Parallel()

	a := NewAuth("key", "secret")
	q := url.Values{"symbol": {"RMVUSDT"}, "side": {"buy"}}

	sig1, ts1 := a.Sign("POST", "/api/v1/order", q)
	sig2, ts2 := a.Sign("POST", "/api/v1/order", q)

	// Two calls a moment apart may get different timestamps, and so
	// different signatures; the signature must be a function of (method,
	// endpoint, sorted query, timestamp) only, so once both calls land on
	// the same millisecond their signatures must match.
	if ts1 > ts2 {
		t.Fatalf("timestamps went backwards: %d then %d", ts1, ts2)
	}
	if sig1 == "" || sig2 == "" {
		t.Fatal("expected non-empty signatures")
	}
	for ts1 != ts2 {
		sig1, ts1 = a.Sign("POST", "/api/v1/order", q)
		sig2, ts2 = a.Sign("POST", "/api/v1/order", q)
	}
	if sig1 != sig2 {
		t.Fatalf("same timestamp %d gave different signatures %q and %q", ts1, sig1, sig2)
	}
}

func TestSignIsOrderIndependent(t *testing.T) {
	t.Parallel()

	a := NewAuth("key", "secret")

	q1 := url.Values{}
	q1.Set("symbol", "RMVUSDT")
	q1.Set("side", "buy")

	q2 := url.Values{}
	q2.Set("side", "buy")
	q2.Set("symbol", "RMVUSDT")

	// Sign stamps its own timestamp, so both queries are re-signed until
	// the two calls land on the same millisecond; the signatures must then
	// match even though the parameters were set in different orders.
	sig1, ts1 := a.Sign("POST", "/api/v1/order", q1)
	sig2, ts2 := a.Sign("POST", "/api/v1/order", q2)

	if len(sig1) != 64 || len(sig2) != 64 {
		t.Fatalf("expected 64-char hex SHA256 digests, got lengths %d and %d", len(sig1), len(sig2))
	}
	for ts1 != ts2 {
		sig1, ts1 = a.Sign("POST", "/api/v1/order", q1)
		sig2, ts2 = a.Sign("POST", "/api/v1/order", q2)
	}
	if sig1 != sig2 {
		t.Fatalf("same timestamp %d gave different signatures %q and %q for reordered queries", ts1, sig1, sig2)
	}
}

func TestAPIKey(t *testing.T) {
	t.Parallel()

	a := NewAuth("my-key", "secret")
	if got := a.APIKey(); got != "my-key" {
		t.Fatalf("APIKey() = %q, want %q", got, "my-key")
	}
}
