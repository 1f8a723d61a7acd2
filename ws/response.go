package ws

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// Cookie is the domain shape of a response cookie. MaxAge is nil when the
// server sent no usable max-age; engine sentinel values are translated to
// absence rather than surfaced as literal numbers.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	MaxAge   *int64
	Secure   bool
	HTTPOnly bool
}

// Response is a read-only adapter over a completed engine response:
// status, normalized headers, parsed cookies, raw body bytes, and lazy
// text decoding. Created once per completed exchange.
type Response struct {
	StatusCode int
	Status     string
	Timing     TimingInfo

	headers Headers
	cookies []Cookie
	body    []byte

	text       string
	textParsed bool
}

// newResponse adapts a completed engine response whose body has already
// been read in full.
func newResponse(resp *http.Response, body []byte, timing TimingInfo) *Response {
	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Timing:     timing,
		headers:    NormalizeHeaders(resp.Header),
		cookies:    adaptCookies(resp.Cookies()),
		body:       body,
	}
}

func adaptCookies(cs []*http.Cookie) []Cookie {
	cookies := make([]Cookie, 0, len(cs))
	for _, c := range cs {
		cookie := Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		// MaxAge sentinels (unset or negative) surface as absent.
		if c.MaxAge > 0 {
			maxAge := int64(c.MaxAge)
			cookie.MaxAge = &maxAge
		}
		cookies = append(cookies, cookie)
	}
	return cookies
}

// Headers returns the normalized response headers.
func (r *Response) Headers() Headers { return r.headers.Clone() }

// Header returns the first value of the named header, any casing.
func (r *Response) Header(name string) string { return r.headers.Get(name) }

// HeaderValues returns all values of the named header in order.
func (r *Response) HeaderValues(name string) []string { return r.headers.Values(name) }

// Cookies returns the parsed response cookies.
func (r *Response) Cookies() []Cookie { return append([]Cookie(nil), r.cookies...) }

// Cookie returns the named cookie, if present.
func (r *Response) Cookie(name string) (Cookie, bool) {
	for _, c := range r.cookies {
		if c.Name == name {
			return c, true
		}
	}
	return Cookie{}, false
}

// Body returns the raw response bytes with no decoding applied.
func (r *Response) Body() []byte { return r.body }

// ContentType returns the Content-Type header value.
func (r *Response) ContentType() string { return r.headers.Get("Content-Type") }

// Text decodes the body as text using the charset from the Content-Type
// header, defaulting to UTF-8. The decoded string is cached.
func (r *Response) Text() (string, error) {
	if r.textParsed {
		return r.text, nil
	}
	text, err := r.TextWithCharset("")
	if err != nil {
		return "", err
	}
	r.text = text
	r.textParsed = true
	return text, nil
}

// TextWithCharset decodes the body using the given charset, or the
// header-derived one when charset is empty.
func (r *Response) TextWithCharset(charset string) (string, error) {
	if charset == "" {
		if _, params, err := mime.ParseMediaType(r.ContentType()); err == nil {
			charset = params["charset"]
		}
	}
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(r.body), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCharset, charset)
	}
	decoded, err := enc.NewDecoder().Bytes(r.body)
	if err != nil {
		return "", fmt.Errorf("decoding body as %q: %v", charset, err)
	}
	return string(decoded), nil
}

// JSON unmarshals the body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.body, v)
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// IsRedirect reports whether the status code is in the 3xx range.
func (r *Response) IsRedirect() bool { return r.StatusCode >= 300 && r.StatusCode < 400 }

// IsClientError reports whether the status code is in the 4xx range.
func (r *Response) IsClientError() bool { return r.StatusCode >= 400 && r.StatusCode < 500 }

// IsServerError reports whether the status code is in the 5xx range.
func (r *Response) IsServerError() bool { return r.StatusCode >= 500 && r.StatusCode < 600 }
