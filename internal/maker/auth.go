package maker

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Auth signs maker-venue REST requests with HMAC-SHA256 over
// method+endpoint+sorted(query)+timestamp, the scheme the maker venue
// documents for trading endpoints. There is no wallet/EIP-712 signing
// anywhere in this design — that machinery belongs to a different kind of
// exchange than the spot venue modeled here.
type Auth struct {
	apiKey string
	secret []byte
}

// NewAuth builds an Auth from the configured API key/secret pair.
func NewAuth(apiKey, secret string) *Auth {
	return &Auth{apiKey: apiKey, secret: []byte(secret)}
}

// APIKey returns the configured API key, sent as a header alongside the
// signature.
func (a *Auth) APIKey() string {
	return a.apiKey
}

// Sign computes the request signature and the millisecond timestamp it
// was computed at. query carries the request's query/body parameters;
// they are sorted by key before signing so the server and client agree on
// byte-for-byte message content regardless of insertion order.
func (a *Auth) Sign(method, endpoint string, query url.Values) (signature string, timestampMs int64) {
	timestampMs = time.Now().UnixMilli()

	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sorted strings.Builder
	for i, k := range keys {
		if i > 0 {
			sorted.WriteByte('&')
		}
		sorted.WriteString(k)
		sorted.WriteByte('=')
		sorted.WriteString(query.Get(k))
	}

	message := method + endpoint + sorted.String() + strconv.FormatInt(timestampMs, 10)

	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil)), timestampMs
}
