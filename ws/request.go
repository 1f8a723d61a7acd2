package ws

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// InfiniteTimeout disables the request timeout entirely. It maps to the
// engine sentinel -1.
const InfiniteTimeout time.Duration = math.MaxInt64

// Param is a single name/value pair. Query strings and form bodies are
// ordered parameter lists rather than maps: insertion order is preserved
// and duplicate names are all retained.
type Param struct {
	Name  string
	Value string
}

type authConfig struct {
	username string
	password string
	scheme   AuthScheme
}

// Request is an immutable description of a pending HTTP request. Every
// With* transform returns a new Request with exactly one aspect changed;
// the receiver is never modified and remains valid, so a configured
// request can be reused as a template or executed multiple times.
// Requests are created by Client.URL and are safe for concurrent use.
type Request struct {
	client *Client

	url                string
	method             string
	body               Body
	headers            Headers
	query              []Param
	auth               *authConfig
	calc               SignatureCalculator
	followRedirects    *bool
	timeoutMillis      *int
	virtualHost        string
	proxy              *ProxyServer
	disableURLEncoding *bool
}

// clone returns a copy with deep-copied mutable fields. Scalars and
// set-once pointers are shared; they are never written after assignment.
func (r *Request) clone() *Request {
	c := *r
	c.headers = r.headers.Clone()
	c.query = append([]Param(nil), r.query...)
	return &c
}

// URL returns the base URL the request was created with, unencoded.
func (r *Request) URL() string { return r.url }

// Method returns the HTTP verb, defaulting to GET.
func (r *Request) Method() string {
	if r.method == "" {
		return http.MethodGet
	}
	return r.method
}

// Headers returns a copy of the request headers.
func (r *Request) Headers() Headers { return r.headers.Clone() }

// QueryParams returns a copy of the query parameters in insertion order.
func (r *Request) QueryParams() []Param { return append([]Param(nil), r.query...) }

// WithMethod returns a request with the HTTP verb replaced.
func (r *Request) WithMethod(method string) *Request {
	c := r.clone()
	c.method = method
	return c
}

// WithHeader returns a request with values appended to the named header.
// Adding to an existing name appends; it never replaces earlier values.
func (r *Request) WithHeader(name string, values ...string) *Request {
	c := r.clone()
	for _, v := range values {
		c.headers.Add(name, v)
	}
	return c
}

// WithHeaders returns a request with all given pairs appended, in order.
func (r *Request) WithHeaders(pairs ...Param) *Request {
	c := r.clone()
	for _, p := range pairs {
		c.headers.Add(p.Name, p.Value)
	}
	return c
}

// WithContentType returns a request with the Content-Type header replaced.
func (r *Request) WithContentType(contentType string) *Request {
	c := r.clone()
	c.headers.Set("Content-Type", contentType)
	return c
}

// WithQueryParam returns a request with one query parameter appended.
// Repeated names are all retained, one entry per value.
func (r *Request) WithQueryParam(name, value string) *Request {
	c := r.clone()
	c.query = append(c.query, Param{Name: name, Value: value})
	return c
}

// WithQueryParams returns a request with the given parameters appended in order.
func (r *Request) WithQueryParams(params ...Param) *Request {
	c := r.clone()
	c.query = append(c.query, params...)
	return c
}

// WithBody returns a request with the payload replaced.
func (r *Request) WithBody(body Body) *Request {
	c := r.clone()
	c.body = body
	return c
}

// WithAuth returns a request carrying credentials for the given scheme.
// The scheme is validated at build time; DIGEST disables preemptive
// authentication, all other schemes enable it.
func (r *Request) WithAuth(username, password string, scheme AuthScheme) *Request {
	c := r.clone()
	c.auth = &authConfig{username: username, password: password, scheme: scheme}
	return c
}

// Sign returns a request with a signature calculator attached. The
// calculator is invoked against the built engine request; it must
// implement EngineSigner or the build fails.
func (r *Request) Sign(calc SignatureCalculator) *Request {
	c := r.clone()
	c.calc = calc
	return c
}

// WithFollowRedirects returns a request overriding the engine's redirect
// policy for this request only.
func (r *Request) WithFollowRedirects(follow bool) *Request {
	c := r.clone()
	c.followRedirects = &follow
	return c
}

// WithVirtualHost returns a request with an explicit Host value.
func (r *Request) WithVirtualHost(host string) *Request {
	c := r.clone()
	c.virtualHost = host
	return c
}

// WithProxyServer returns a request routed through the given proxy.
func (r *Request) WithProxyServer(proxy ProxyServer) *Request {
	c := r.clone()
	proxy.NonProxyHosts = append([]string(nil), proxy.NonProxyHosts...)
	c.proxy = &proxy
	return c
}

// WithDisableURLEncoding returns a request controlling whether query
// parameters are percent-encoded when the URL is assembled.
func (r *Request) WithDisableURLEncoding(disable bool) *Request {
	c := r.clone()
	c.disableURLEncoding = &disable
	return c
}

// WithRequestTimeout returns a request with a per-request timeout.
// InfiniteTimeout maps to the engine sentinel -1; finite durations must
// fit in a signed 32-bit millisecond range. Validation happens here, not
// at build time, so mistakes surface close to the call site.
func (r *Request) WithRequestTimeout(d time.Duration) (*Request, error) {
	var millis int
	if d == InfiniteTimeout {
		millis = -1
	} else {
		ms := d.Milliseconds()
		if ms < 0 || ms > math.MaxInt32 {
			return nil, ErrInvalidTimeout
		}
		millis = int(ms)
	}
	c := r.clone()
	c.timeoutMillis = &millis
	return c, nil
}

// DisplayURL returns the request URL with the query parameters appended,
// each name and value percent-encoded independently as UTF-8. Intended
// for logs and debug output; the builder assembles the real URL itself.
func (r *Request) DisplayURL() string {
	if len(r.query) == 0 {
		return r.url
	}
	var b strings.Builder
	b.WriteString(r.url)
	sep := byte('?')
	if strings.Contains(r.url, "?") {
		sep = '&'
	}
	for _, p := range r.query {
		b.WriteByte(sep)
		sep = '&'
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Execute submits the request with the given verb and returns a future
// that settles with the adapted response or the engine's error.
func (r *Request) Execute(ctx context.Context, method string) *ResponseFuture {
	return r.client.Execute(ctx, r.WithMethod(method))
}

// Get submits the request as a GET.
func (r *Request) Get(ctx context.Context) *ResponseFuture {
	return r.Execute(ctx, http.MethodGet)
}

// Head submits the request as a HEAD.
func (r *Request) Head(ctx context.Context) *ResponseFuture {
	return r.Execute(ctx, http.MethodHead)
}

// Options submits the request as an OPTIONS.
func (r *Request) Options(ctx context.Context) *ResponseFuture {
	return r.Execute(ctx, http.MethodOptions)
}

// Delete submits the request as a DELETE.
func (r *Request) Delete(ctx context.Context) *ResponseFuture {
	return r.Execute(ctx, http.MethodDelete)
}

// Post submits the request as a POST with the given payload.
func (r *Request) Post(ctx context.Context, body Body) *ResponseFuture {
	return r.WithBody(body).Execute(ctx, http.MethodPost)
}

// Put submits the request as a PUT with the given payload.
func (r *Request) Put(ctx context.Context, body Body) *ResponseFuture {
	return r.WithBody(body).Execute(ctx, http.MethodPut)
}

// Patch submits the request as a PATCH with the given payload.
func (r *Request) Patch(ctx context.Context, body Body) *ResponseFuture {
	return r.WithBody(body).Execute(ctx, http.MethodPatch)
}

// Do submits the request with its configured verb and blocks for the result.
func (r *Request) Do(ctx context.Context) (*Response, error) {
	return r.client.Execute(ctx, r).Wait(ctx)
}
