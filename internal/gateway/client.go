// Package gateway implements the HTTP boundary to the on-chain data provider
// and price oracle (§6), grounded on the teacher's gmgn gateway client: a
// TLS-fingerprint-resistant HTTP client (bogdanfinn/tls-client over
// bogdanfinn/fhttp) with a cookie jar and a fixed minimum delay between
// requests.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	http_client "github.com/bogdanfinn/fhttp"
	"github.com/bogdanfinn/fhttp/cookiejar"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/smartwallet/tracker/internal/errs"
	"github.com/smartwallet/tracker/pkg/utils/config"
)

// httpClient is the shared transport used by Provider, Oracle and Market: one
// TLS-fingerprinted client per configured base URL.
type httpClient struct {
	baseURL        string
	apiKeys        []string
	keyIdx         int
	tlsClient      tls_client.HttpClient
	lastRequest    time.Time
	rateLimitDelay time.Duration
}

func newHTTPClient(baseURL string, apiKeys []string, timeoutSeconds int) *httpClient {
	jar, _ := cookiejar.New(nil)
	opts := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithCookieJar(jar),
		tls_client.WithNotFollowRedirects(),
		tls_client.WithRandomTLSExtensionOrder(),
	}
	tlsClient, _ := tls_client.NewHttpClient(tls_client.NewNoopLogger(), opts...)
	return &httpClient{
		baseURL:        baseURL,
		apiKeys:        apiKeys,
		tlsClient:      tlsClient,
		lastRequest:    time.Now().Add(-250 * time.Millisecond),
		rateLimitDelay: 250 * time.Millisecond,
	}
}

func (c *httpClient) headers() http_client.Header {
	h := http_client.Header{
		"accept":          []string{"application/json"},
		"accept-language": []string{"en-US,en;q=0.9"},
		"user-agent":      []string{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"},
	}
	if len(c.apiKeys) > 0 {
		key := c.apiKeys[c.keyIdx%len(c.apiKeys)]
		c.keyIdx++
		h["x-api-key"] = []string{key}
	}
	return h
}

// getJSON performs a rate-limited GET against path?query and decodes the JSON
// body into out. A non-2xx status maps to errs.Transient for 429/5xx and
// errs.Fatal otherwise, matching §7's provider error taxonomy.
func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.rateLimitDelay {
		select {
		case <-time.After(c.rateLimitDelay - elapsed):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.lastRequest = time.Now()

	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	req, err := http_client.NewRequest(http_client.MethodGet, full, nil)
	if err != nil {
		return errs.AsFatal(fmt.Errorf("building request: %w", err))
	}
	req.Header = c.headers()

	resp, err := c.tlsClient.Do(req)
	if err != nil {
		return errs.AsTransient(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.AsTransient(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode == 429 || resp.StatusCode >= 500 {
		return errs.AsTransient(fmt.Errorf("provider returned status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return errs.AsFatal(fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errs.AsFatal(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// ClientSet bundles the three gateway roles built over one configured
// provider connection plus the independently configured oracle pair.
type ClientSet struct {
	Provider  *Provider
	Primary   *Oracle
	Secondary *Oracle
	Market    *Provider
	Discovery *Discovery
}

// NewClientSet wires the gateway clients from config (§6 provider.*, oracle.*).
func NewClientSet(cfg *config.Config) *ClientSet {
	providerHTTP := newHTTPClient(cfg.Provider.BaseURL, cfg.Provider.APIKeys, cfg.Provider.TimeoutSeconds)
	prov := &Provider{http: providerHTTP}

	primaryHTTP := newHTTPClient(cfg.Oracle.PrimaryURL, nil, cfg.Oracle.TimeoutSeconds)
	secondaryHTTP := newHTTPClient(cfg.Oracle.SecondaryURL, nil, cfg.Oracle.TimeoutSeconds)

	return &ClientSet{
		Provider:  prov,
		Primary:   &Oracle{http: primaryHTTP},
		Secondary: &Oracle{http: secondaryHTTP},
		Market:    prov,
		Discovery: &Discovery{http: providerHTTP},
	}
}
