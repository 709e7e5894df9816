// Package httpfetcher provides a fetcher.Fetcher implementation backed by
// net/http, with browser-like request headers and classified failures.
package httpfetcher

import (
	"bucketscan/pkg/fetcher"
	"bucketscan/pkg/serrors"
	"context"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultUserAgent mimics a common desktop browser to avoid trivial bot blocking.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36"
	// DefaultMaxRedirects matches the net/http default redirect limit.
	DefaultMaxRedirects = 10
	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 10 * time.Second
)

// Options configure the HTTP client used for probing.
type Options struct {
	// Timeout bounds a single request including reading the body.
	Timeout time.Duration
	// UserAgent overrides DefaultUserAgent when set.
	UserAgent string
	// MaxBodyBytes caps how much of a body is read. Zero or less reads everything.
	MaxBodyBytes int64
	// MaxRedirects is the redirect limit; exceeding it is a TooManyRedirects failure.
	MaxRedirects int
	// Transport overrides the default transport (mostly for tests).
	Transport http.RoundTripper
}

// Client issues probe requests. It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	headers      http.Header
	maxBodyBytes int64
}

// Get performs a GET on URL and reads the body. Errors are wrapped in
// serrors.Error with the kind picked by Classify.
func (c *Client) Get(ctx context.Context, URL string) (*fetcher.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, URL, nil)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrGeneric, err, "could not create request")
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, serrors.Wrap(Classify(err), err, "could not send request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var body io.Reader = resp.Body
	if c.maxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBodyBytes)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, serrors.Wrap(Classify(err), err, "could not read response body")
	}

	return &fetcher.Response{StatusCode: resp.StatusCode, Body: b}, nil
}

// Ensure Client conforms to the fetcher.Fetcher interface at compile time.
var _ fetcher.Fetcher = (*Client)(nil)

// BrowserHeaders returns the request header set sent with every probe.
func BrowserHeaders(userAgent string) http.Header {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.9")

	return h
}

// New constructs a Client. The client keeps no cookies.
func New(options Options) *Client {
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	if options.MaxRedirects <= 0 {
		options.MaxRedirects = DefaultMaxRedirects
	}

	transport := options.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone() //nolint: forcetypeassert
		t.MaxIdleConnsPerHost = 2
		transport = t
	}

	maxRedirects := options.MaxRedirects

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   options.Timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return serrors.With(serrors.ErrTooManyRedirects, "stopped after %d redirects", maxRedirects)
				}

				return nil
			},
		},
		headers:      BrowserHeaders(options.UserAgent),
		maxBodyBytes: options.MaxBodyBytes,
	}
}
