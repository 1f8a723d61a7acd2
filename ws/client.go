package ws

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/avlberg/wsclient/metrics"
)

// Client is the facade over the underlying HTTP engine. It owns the
// shared transport (connection pool) and the engine-level defaults that
// per-request settings override. A Client is created once, shared across
// many request descriptors, and explicitly closed on shutdown. It is safe
// for concurrent use.
type Client struct {
	engine    *http.Client
	transport *http.Transport
	limiter   *rate.Limiter

	baseURL   string
	userAgent string
	logger    zerolog.Logger
	recorder  *metrics.Recorder
}

type clientOptions struct {
	baseURL         string
	userAgent       string
	connectTimeout  time.Duration
	requestTimeout  time.Duration
	followRedirects *bool
	compression     *bool
	tlsConfig       *tls.Config
	httpClient      *http.Client
	logger          *zerolog.Logger
	recorder        *metrics.Recorder
	throttleRPS     float64
	throttleBurst   int
}

// Option configures a Client.
type Option func(*clientOptions) error

// WithBaseURL sets a base URL that relative request URLs are joined onto.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) error {
		o.baseURL = baseURL
		return nil
	}
}

// WithUserAgent sets the User-Agent sent when a request does not set its own.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) error {
		o.userAgent = ua
		return nil
	}
}

// WithConnectTimeout bounds connection establishment.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *clientOptions) error {
		if d < 0 {
			return fmt.Errorf("connect timeout must not be negative: %v", d)
		}
		o.connectTimeout = d
		return nil
	}
}

// WithRequestTimeout sets the engine-default request timeout, which
// Request.WithRequestTimeout overrides per request.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *clientOptions) error {
		if d < 0 {
			return fmt.Errorf("request timeout must not be negative: %v", d)
		}
		o.requestTimeout = d
		return nil
	}
}

// WithFollowRedirects sets the engine-default redirect policy.
func WithFollowRedirects(follow bool) Option {
	return func(o *clientOptions) error {
		o.followRedirects = &follow
		return nil
	}
}

// WithCompression toggles transparent response decompression.
func WithCompression(enabled bool) Option {
	return func(o *clientOptions) error {
		o.compression = &enabled
		return nil
	}
}

// WithTLSConfig sets the transport TLS configuration.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *clientOptions) error {
		o.tlsConfig = cfg
		return nil
	}
}

// WithHTTPClient supplies a fully configured engine client. Transport
// options (connect timeout, TLS, compression) are ignored when set.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		o.httpClient = hc
		return nil
	}
}

// WithLogger enables debug logging of request submission and settlement.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) error {
		o.logger = &logger
		return nil
	}
}

// WithMetrics records per-request latencies into the given recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *clientOptions) error {
		o.recorder = r
		return nil
	}
}

// WithThrottle rate-limits outbound requests with a token bucket.
// Requests over the limit block until a token is available or their
// context is cancelled.
func WithThrottle(rps float64, burst int) Option {
	return func(o *clientOptions) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("throttle rps and burst must be greater than zero")
		}
		o.throttleRPS = rps
		o.throttleBurst = burst
		return nil
	}
}

// NewClient creates a client facade with the given engine defaults.
func NewClient(opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	c := &Client{
		baseURL:   o.baseURL,
		userAgent: o.userAgent,
		logger:    zerolog.Nop(),
	}
	if o.logger != nil {
		c.logger = *o.logger
	}
	c.recorder = o.recorder

	if o.httpClient != nil {
		c.engine = o.httpClient
		if t, ok := o.httpClient.Transport.(*http.Transport); ok {
			c.transport = t
		} else {
			c.transport = http.DefaultTransport.(*http.Transport).Clone()
		}
	} else {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if o.connectTimeout > 0 {
			t.DialContext = (&net.Dialer{Timeout: o.connectTimeout}).DialContext
		}
		if o.tlsConfig != nil {
			t.TLSClientConfig = o.tlsConfig
		}
		if o.compression != nil {
			t.DisableCompression = !*o.compression
		}
		c.transport = t
		c.engine = &http.Client{Transport: t, Timeout: o.requestTimeout}
	}

	if o.followRedirects != nil && !*o.followRedirects {
		c.engine.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if o.throttleRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(o.throttleRPS), o.throttleBurst)
		c.engine.Transport = &throttledTransport{limiter: c.limiter, next: c.engine.Transport}
	}

	return c, nil
}

// URL creates a request descriptor for the given URL, joined onto the
// client's base URL when relative. The returned request defaults to GET.
func (c *Client) URL(rawurl string) *Request {
	u := rawurl
	if c.baseURL != "" && !strings.Contains(rawurl, "://") {
		u = strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(rawurl, "/")
	}
	return &Request{client: c, url: u, method: http.MethodGet}
}

// Execute builds the request and submits it to the engine. The build is
// synchronous, so configuration errors surface before any I/O as an
// already-failed future. Completion happens on the engine's own
// goroutine; the returned future settles exactly once with either the
// adapted response or the engine's error unmodified.
func (c *Client) Execute(ctx context.Context, r *Request) *ResponseFuture {
	er, err := build(r)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", r.url).Msg("request build failed")
		return failedFuture(err)
	}

	fut := newResponseFuture()
	go c.submit(ctx, er, fut)
	return fut
}

// Close releases the engine's pooled connections.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

func (c *Client) submit(ctx context.Context, er *EngineRequest, fut *ResponseFuture) {
	hc := c.clientFor(er)

	var timing TimingInfo
	ctx = withClientTrace(ctx, &timing)

	req, err := er.HTTPRequest(ctx)
	if err != nil {
		fut.fail(err)
		return
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug().Str("method", req.Method).Stringer("url", req.URL).Msg("submitting request")

	resp, err := hc.Do(req)
	if err == nil {
		resp, err = c.answerDigestChallenge(hc, er, req, resp)
	}
	if err != nil {
		if c.recorder != nil {
			c.recorder.RecordFailure()
		}
		c.logger.Debug().Err(err).Str("method", req.Method).Msg("request failed")
		fut.fail(err)
		return
	}

	transferStart := time.Now()
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		if c.recorder != nil {
			c.recorder.RecordFailure()
		}
		fut.fail(readErr)
		return
	}
	timing.ContentTransferTime = time.Since(transferStart)
	timing.TotalTime = time.Since(timing.StartTime)

	if c.recorder != nil {
		c.recorder.Record(timing.TotalTime)
	}
	c.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("total", timing.TotalTime).
		Msg("request completed")

	fut.complete(newResponse(resp, body, timing))
}

// clientFor derives a request-scoped engine client when the built request
// overrides redirects, proxying, or the timeout; otherwise the shared
// client is used as-is. The shared connection pool is reused except for
// proxied requests, which need their own transport.
func (c *Client) clientFor(er *EngineRequest) *http.Client {
	if er.FollowRedirects == nil && er.Proxy == nil && er.TimeoutMillis == nil {
		return c.engine
	}

	hc := *c.engine
	if er.TimeoutMillis != nil {
		if *er.TimeoutMillis < 0 {
			hc.Timeout = 0
		} else {
			hc.Timeout = time.Duration(*er.TimeoutMillis) * time.Millisecond
		}
	}
	if er.FollowRedirects != nil {
		if *er.FollowRedirects {
			hc.CheckRedirect = nil
		} else {
			hc.CheckRedirect = func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}
		}
	}
	if er.Proxy != nil {
		proxy := er.Proxy
		t := c.transport.Clone()
		t.Proxy = func(req *http.Request) (*url.URL, error) {
			if proxy.Bypass(req.URL.Hostname()) {
				return nil, nil
			}
			return proxy.URL(), nil
		}
		var rt http.RoundTripper = t
		if c.limiter != nil {
			rt = &throttledTransport{limiter: c.limiter, next: rt}
		}
		hc.Transport = rt
	}
	return &hc
}

// answerDigestChallenge performs the single challenge round for a
// non-preemptive DIGEST realm: on a 401 carrying a digest challenge the
// request is replayed once with the computed Authorization header.
// Non-replayable (streamed) bodies surface the 401 as-is.
func (c *Client) answerDigestChallenge(hc *http.Client, er *EngineRequest, req *http.Request, resp *http.Response) (*http.Response, error) {
	auth := er.Auth
	if auth == nil || auth.Scheme != AuthDigest || resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}

	var ch *digestChallenge
	for _, header := range resp.Header.Values("Www-Authenticate") {
		if parsed, err := parseDigestChallenge(header); err == nil {
			ch = parsed
			break
		}
	}
	if ch == nil {
		return resp, nil
	}

	authz, err := answerDigest(ch, auth.Username, auth.Password, req.Method, req.URL.RequestURI(), newCnonce())
	if err != nil {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", authz)

	c.logger.Debug().Str("method", req.Method).Msg("answering digest challenge")
	return hc.Do(retry)
}

// throttledTransport rate-limits outbound calls with a token bucket,
// blocking until a token is available or the request context ends.
type throttledTransport struct {
	limiter *rate.Limiter
	next    http.RoundTripper
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}
