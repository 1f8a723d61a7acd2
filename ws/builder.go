package ws

import (
	"fmt"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// build renders an immutable request descriptor into the engine-native
// request. It is pure with respect to the descriptor: all state lives in
// the returned EngineRequest, allocated fresh on every call.
//
// Step order matters: the body resolution may filter headers that the
// header emission and the signature calculator then observe.
func build(r *Request) (*EngineRequest, error) {
	er := &EngineRequest{Method: r.Method()}

	u, err := url.Parse(r.url)
	if err != nil {
		return nil, fmt.Errorf("parsing request url: %w", err)
	}

	if r.disableURLEncoding != nil {
		er.DisableURLEncoding = *r.disableURLEncoding
	}

	if r.auth != nil {
		realm, err := newAuthRealm(r.auth.username, r.auth.password, r.auth.scheme)
		if err != nil {
			return nil, err
		}
		er.Auth = realm
	}

	appendQuery(u, r.query, er.DisableURLEncoding)
	er.URL = u

	if r.virtualHost != "" {
		er.VirtualHost = r.virtualHost
	}
	if r.followRedirects != nil {
		follow := *r.followRedirects
		er.FollowRedirects = &follow
	}
	if r.proxy != nil {
		proxy, err := buildProxy(r.proxy)
		if err != nil {
			return nil, err
		}
		er.Proxy = proxy
	}
	if r.timeoutMillis != nil {
		millis := *r.timeoutMillis
		er.TimeoutMillis = &millis
	}

	headers, err := resolveBody(r, er)
	if err != nil {
		return nil, err
	}
	er.Headers = headers

	if r.calc != nil {
		signer, ok := r.calc.(EngineSigner)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedSignatureCalculator, r.calc)
		}
		if err := signer.SignRequest(er); err != nil {
			return nil, fmt.Errorf("signing request: %w", err)
		}
	}

	return er, nil
}

// appendQuery expands the ordered parameter list onto the URL's query
// string. Multi-valued names repeat, insertion order is preserved, and
// duplicates are all retained. Encoding is skipped when the caller
// disabled it.
func appendQuery(u *url.URL, params []Param, disableEncoding bool) {
	if len(params) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString(u.RawQuery)
	for _, p := range params {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		if disableEncoding {
			b.WriteString(p.Name)
			b.WriteByte('=')
			b.WriteString(p.Value)
		} else {
			b.WriteString(url.QueryEscape(p.Name))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.Value))
		}
	}
	u.RawQuery = b.String()
}

// resolveBody maps the body variant onto an encoding strategy and returns
// the header set the engine request should carry, filtered where the
// strategy demands it.
func resolveBody(r *Request, er *EngineRequest) (Headers, error) {
	headers := r.headers.Clone()

	switch b := r.body.(type) {
	case nil, EmptyBody:
		// No payload; headers pass through unchanged.

	case FileBody:
		// Streamed from disk; the engine owns chunking and Content-Length.
		er.FilePath = string(b)

	case BytesBody:
		contentType := headers.Get("Content-Type")
		if contentType == "" {
			contentType = "text/plain"
		}
		if strings.Contains(strings.ToLower(contentType), "application/x-www-form-urlencoded") && r.calc != nil {
			// A signature calculator signs over individual form fields,
			// not an opaque byte blob, so the payload is decoded and
			// re-expressed as structured parameters. Emitting the raw
			// bytes alongside would also produce a duplicate, invalid
			// Content-Length, so any user-supplied one is stripped.
			decoded, err := decodeWithCharset([]byte(b), contentType)
			if err != nil {
				return Headers{}, err
			}
			params, err := parseFormParams(decoded)
			if err != nil {
				return Headers{}, fmt.Errorf("parsing form body: %w", err)
			}
			er.FormParams = params
			headers.Delete("Content-Length")
		} else {
			// Raw bytes go out verbatim, any explicit Content-Length included.
			er.ByteBody = append([]byte(nil), b...)
			er.ContentLength = int64(len(b))
		}

	case StreamBody:
		// An explicit Content-Length is authoritative but the header
		// itself is stripped; the engine re-adds its own, or switches to
		// chunked transfer when the length is the -1 sentinel.
		er.ContentLength = -1
		if cl := headers.Get("Content-Length"); cl != "" {
			n, err := strconv.ParseInt(cl, 10, 64)
			if err != nil {
				return Headers{}, fmt.Errorf("invalid Content-Length %q: %w", cl, err)
			}
			er.ContentLength = n
			headers.Delete("Content-Length")
		}
		er.Stream = b.Reader

	default:
		return Headers{}, fmt.Errorf("unsupported body variant %T", r.body)
	}

	return headers, nil
}

// decodeWithCharset decodes payload using the charset parameter of the
// content type, defaulting to UTF-8. An unknown charset is a fatal
// configuration error, not a silent fallback.
func decodeWithCharset(payload []byte, contentType string) (string, error) {
	charset := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		charset = params["charset"]
	}
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(payload), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCharset, charset)
	}
	decoded, err := enc.NewDecoder().Bytes(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedCharset, charset, err)
	}
	return string(decoded), nil
}

// parseFormParams parses an application/x-www-form-urlencoded string into
// an ordered parameter list. url.ParseQuery is not used because it
// returns a map and loses parameter order, which signing depends on.
func parseFormParams(s string) ([]Param, error) {
	var params []Param
	for _, segment := range strings.Split(s, "&") {
		if segment == "" {
			continue
		}
		name, value, _ := strings.Cut(segment, "=")
		decodedName, err := url.QueryUnescape(name)
		if err != nil {
			return nil, err
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: decodedName, Value: decodedValue})
	}
	return params, nil
}
