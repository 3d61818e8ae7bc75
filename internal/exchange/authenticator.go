package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"time"
)

// ErrMissingCredentials is returned by NewAuthenticator when the API key
// or secret is empty; construction fails rather than signing with empty
// credentials.
var ErrMissingCredentials = errors.New("exchange: missing API key or secret")

// Authenticator HMAC-signs outbound requests per exchange dialect. No
// third-party HMAC library appears anywhere in the dependency set this
// module draws on, so this is built on the standard crypto/hmac +
// crypto/sha256 — the one deliberate stdlib exception in this module,
// documented in DESIGN.md.
type Authenticator struct {
	apiKey     string
	apiSecret  string
	passphrase string
}

// NewAuthenticator constructs an Authenticator. Fails if key or secret is
// empty.
func NewAuthenticator(apiKey, apiSecret, passphrase string) (*Authenticator, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}
	return &Authenticator{apiKey: apiKey, apiSecret: apiSecret, passphrase: passphrase}, nil
}

// Headers holds the headers a signed request must carry.
type Headers struct {
	AccessKey        string
	AccessSign       string
	AccessTimestamp  string
	AccessPassphrase string // empty when the exchange dialect doesn't require one
	ContentType      string
}

// Sign produces the headers for method+requestPath+body at the current
// time. The canonical string is timestamp+method+requestPath+body; the
// signature is base64(HMAC-SHA256(secret, canonical)). Secret material
// never appears in the returned Headers or in any log line this package
// writes.
func (a *Authenticator) Sign(method, requestPath, body string) Headers {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	canonical := timestamp + method + requestPath + body

	mac := hmac.New(sha256.New, []byte(a.apiSecret))
	mac.Write([]byte(canonical))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return Headers{
		AccessKey:        a.apiKey,
		AccessSign:       signature,
		AccessTimestamp:  timestamp,
		AccessPassphrase: a.passphrase,
		ContentType:      "application/json",
	}
}
