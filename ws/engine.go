package ws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// EngineRequest is the engine-native form of a request: final URL with
// encoded query string, finalized header set, resolved body encoding,
// auth realm, proxy, and timeout. It is produced by build, handed to an
// attached EngineSigner for mutation, and then treated as immutable by
// the facade. At most one of ByteBody, FilePath, Stream, and FormParams
// is set.
type EngineRequest struct {
	Method  string
	URL     *url.URL
	Headers Headers

	ByteBody   []byte
	FilePath   string
	Stream     io.Reader
	FormParams []Param

	// ContentLength is the engine body length: -1 selects chunked
	// transfer for streamed bodies of unknown length.
	ContentLength int64

	Auth  *Realm
	Proxy *BuiltProxy

	// TimeoutMillis is nil when the engine default applies; -1 means no
	// timeout at all.
	TimeoutMillis *int

	FollowRedirects    *bool
	VirtualHost        string
	DisableURLEncoding bool
}

// SetHeader replaces a header on the in-progress request. Intended for
// EngineSigner implementations.
func (er *EngineRequest) SetHeader(name, value string) {
	er.Headers.Set(name, value)
}

// AddHeader appends a header value on the in-progress request.
func (er *EngineRequest) AddHeader(name, value string) {
	er.Headers.Add(name, value)
}

// encodeFormParams renders the structured form parameters back to
// application/x-www-form-urlencoded bytes for the wire.
func encodeFormParams(params []Param) []byte {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return []byte(b.String())
}

// HTTPRequest converts the built request into the engine's request type.
// Buffered and file bodies get a GetBody so the engine (or the digest
// retry in the facade) can replay them; streams cannot be replayed.
func (er *EngineRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var (
		body    io.Reader
		getBody func() (io.ReadCloser, error)
		length  int64
	)

	switch {
	case er.FormParams != nil:
		encoded := encodeFormParams(er.FormParams)
		body = bytes.NewReader(encoded)
		length = int64(len(encoded))
		getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(encoded)), nil
		}
	case er.ByteBody != nil:
		payload := er.ByteBody
		body = bytes.NewReader(payload)
		length = int64(len(payload))
		getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	case er.FilePath != "":
		f, err := os.Open(er.FilePath)
		if err != nil {
			return nil, fmt.Errorf("opening body file: %w", err)
		}
		if info, err := f.Stat(); err == nil {
			length = info.Size()
		}
		body = f
		path := er.FilePath
		getBody = func() (io.ReadCloser, error) {
			return os.Open(path)
		}
	case er.Stream != nil:
		body = er.Stream
		length = er.ContentLength
	}

	req, err := http.NewRequestWithContext(ctx, er.Method, er.URL.String(), body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.ContentLength = length
		req.GetBody = getBody
	}

	er.Headers.ForEach(func(name, value string) {
		req.Header.Add(name, value)
	})

	if er.VirtualHost != "" {
		req.Host = er.VirtualHost
	}

	// Preemptive credentials go out with the first attempt. Basic is the
	// only scheme net/http can express as a static header; NTLM, Kerberos
	// and SPNEGO realms ride on the EngineRequest for negotiating
	// transports installed by the caller.
	if er.Auth != nil && er.Auth.UsePreemptiveAuth && er.Auth.Scheme == AuthBasic {
		req.SetBasicAuth(er.Auth.Username, er.Auth.Password)
	}

	return req, nil
}
