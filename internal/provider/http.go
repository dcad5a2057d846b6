package provider

import (
	"crypto/tls"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "textify/1.0"
)

type transportConfig struct {
	BaseURI   string
	Timeout   int
	VerifySSL bool
}

func (t transportConfig) timeout() time.Duration {
	if t.Timeout <= 0 {
		return defaultTimeout
	}
	return time.Duration(t.Timeout) * time.Second
}

// url joins path onto the base uri. Requests always use absolute urls so a
// caller supplied client can be shared between adapters.
func (t transportConfig) url(path string) string {
	return strings.TrimRight(t.BaseURI, "/") + path
}

func newRestyClient(t transportConfig) *resty.Client {
	client := resty.New()
	client.SetTimeout(t.timeout())
	client.SetRetryCount(0)
	client.SetHeader("User-Agent", userAgent)
	if !t.VerifySSL {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // opt-out per provider config
	}
	return client
}

// decodeResponse turns a resty result into a JSON payload, classifying
// transport failures and non-2xx statuses as *ProviderError.
func decodeResponse(name string, resp *resty.Response, err error) (map[string]any, error) {
	if err != nil {
		return nil, requestError(name, err)
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	return decodePayload(resp.Body())
}
