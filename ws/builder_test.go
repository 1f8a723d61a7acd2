package ws

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

// headerSigner records the request it saw and stamps a header, standing in
// for an OAuth-style calculator.
type headerSigner struct {
	seen *EngineRequest
}

func (s *headerSigner) SignRequest(r *EngineRequest) error {
	s.seen = r
	r.SetHeader("Authorization", "OAuth signed")
	return nil
}

// notASigner is attached as a calculator but lacks the engine capability.
type notASigner struct{}

func TestBuild_MethodAndURL(t *testing.T) {
	er, err := build(newTestRequest("http://example.com/users").WithMethod("POST"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if er.Method != "POST" {
		t.Errorf("method = %q", er.Method)
	}
	if er.URL.String() != "http://example.com/users" {
		t.Errorf("url = %q", er.URL.String())
	}
}

func TestBuild_QueryDuplicateKeysRetained(t *testing.T) {
	er, err := build(newTestRequest("http://example.com/search").
		WithQueryParam("tag", "a").
		WithQueryParam("q", "x y").
		WithQueryParam("tag", "b"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := er.URL.RawQuery; got != "tag=a&q=x+y&tag=b" {
		t.Errorf("raw query = %q, want tag=a&q=x+y&tag=b", got)
	}
}

func TestBuild_QueryAppendsToExisting(t *testing.T) {
	er, err := build(newTestRequest("http://example.com/p?fixed=1").WithQueryParam("k", "v"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := er.URL.RawQuery; got != "fixed=1&k=v" {
		t.Errorf("raw query = %q", got)
	}
}

func TestBuild_DisableURLEncoding(t *testing.T) {
	er, err := build(newTestRequest("http://example.com/p").
		WithDisableURLEncoding(true).
		WithQueryParam("k", "a b"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := er.URL.RawQuery; got != "k=a b" {
		t.Errorf("raw query = %q, want unencoded", got)
	}
}

func TestBuild_BytesBodyRoundTrip(t *testing.T) {
	payload := []byte("hello, wörld")
	er, err := build(newTestRequest("http://example.com").
		WithContentType("text/plain").
		WithBody(BytesBody(payload)))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.Equal(er.ByteBody, payload) {
		t.Errorf("payload = %q, want %q", er.ByteBody, payload)
	}
	if er.ContentLength != int64(len(payload)) {
		t.Errorf("content length = %d", er.ContentLength)
	}
	if er.FormParams != nil {
		t.Error("unexpected form params for text/plain body")
	}
}

func TestBuild_BytesBodyDefaultContentType(t *testing.T) {
	// Without a Content-Type header the body defaults to text/plain and
	// goes out verbatim even when a calculator is attached.
	signer := &headerSigner{}
	er, err := build(newTestRequest("http://example.com").
		WithBody(BytesBody("a=1&b=2")).
		Sign(signer))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if er.FormParams != nil {
		t.Error("structured form path taken without form content type")
	}
	if string(er.ByteBody) != "a=1&b=2" {
		t.Errorf("payload = %q", er.ByteBody)
	}
}

func TestBuild_SignedFormBodyBecomesStructured(t *testing.T) {
	signer := &headerSigner{}
	er, err := build(newTestRequest("http://example.com/token").
		WithContentType("application/x-www-form-urlencoded").
		WithHeader("Content-Length", "17").
		WithBody(BytesBody("a=1&b=x+y&a=2&c=%C3%A9")).
		Sign(signer))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	want := []Param{{"a", "1"}, {"b", "x y"}, {"a", "2"}, {"c", "é"}}
	if !reflect.DeepEqual(er.FormParams, want) {
		t.Errorf("form params = %v, want %v", er.FormParams, want)
	}
	if er.ByteBody != nil {
		t.Error("raw byte payload must not be set on the structured form path")
	}
	if er.Headers.Contains("Content-Length") {
		t.Error("explicit Content-Length must be stripped on the structured form path")
	}
	if signer.seen != er {
		t.Error("signature calculator did not observe the engine request")
	}
	if er.Headers.Get("Authorization") != "OAuth signed" {
		t.Error("signature calculator header mutation lost")
	}
}

func TestBuild_UnsignedFormBodyStaysRaw(t *testing.T) {
	er, err := build(newTestRequest("http://example.com/token").
		WithContentType("application/x-www-form-urlencoded").
		WithHeader("Content-Length", "7").
		WithBody(BytesBody("a=1&b=2")))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if er.FormParams != nil {
		t.Error("structured form path taken without a calculator")
	}
	if string(er.ByteBody) != "a=1&b=2" {
		t.Errorf("payload = %q", er.ByteBody)
	}
	if got := er.Headers.Get("content-length"); got != "7" {
		t.Errorf("explicit Content-Length = %q, want preserved", got)
	}
}

func TestBuild_SignedFormBodyCharset(t *testing.T) {
	// ISO-8859-1 payload: caf\xe9 decodes to café.
	signer := &headerSigner{}
	er, err := build(newTestRequest("http://example.com").
		WithContentType("application/x-www-form-urlencoded; charset=iso-8859-1").
		WithBody(BytesBody([]byte{'d', '=', 'c', 'a', 'f', 0xe9})).
		Sign(signer))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []Param{{"d", "café"}}
	if !reflect.DeepEqual(er.FormParams, want) {
		t.Errorf("form params = %v, want %v", er.FormParams, want)
	}
}

func TestBuild_SignedFormBodyUnsupportedCharset(t *testing.T) {
	_, err := build(newTestRequest("http://example.com").
		WithContentType("application/x-www-form-urlencoded; charset=no-such-charset").
		WithBody(BytesBody("a=1")).
		Sign(&headerSigner{}))
	if !errors.Is(err, ErrUnsupportedCharset) {
		t.Fatalf("expected ErrUnsupportedCharset, got %v", err)
	}
}

func TestBuild_StreamBodyExplicitContentLength(t *testing.T) {
	er, err := build(newTestRequest("http://example.com").
		WithHeader("content-length", "1234").
		WithBody(StreamBody{Reader: strings.NewReader("chunk")}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if er.ContentLength != 1234 {
		t.Errorf("content length = %d, want 1234", er.ContentLength)
	}
	if er.Headers.Contains("Content-Length") {
		t.Error("Content-Length header must be stripped for streamed bodies")
	}
	if er.Stream == nil {
		t.Error("stream not attached")
	}
}

func TestBuild_StreamBodyUnknownLengthIsChunked(t *testing.T) {
	er, err := build(newTestRequest("http://example.com").
		WithBody(StreamBody{Reader: strings.NewReader("chunk")}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if er.ContentLength != -1 {
		t.Errorf("content length = %d, want -1 (chunked)", er.ContentLength)
	}
}

func TestBuild_FileBody(t *testing.T) {
	er, err := build(newTestRequest("http://example.com").
		WithHeader("Content-Type", "application/octet-stream").
		WithBody(FileBody("/tmp/payload.bin")))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if er.FilePath != "/tmp/payload.bin" {
		t.Errorf("file path = %q", er.FilePath)
	}
	if got := er.Headers.Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("headers changed for file body: %q", got)
	}
}

func TestBuild_HeaderMultiValueEmission(t *testing.T) {
	er, err := build(newTestRequest("http://example.com").
		WithHeader("Accept", "application/json").
		WithHeader("accept", "text/plain"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := er.Headers.Values("ACCEPT"); !reflect.DeepEqual(got, []string{"application/json", "text/plain"}) {
		t.Errorf("values = %v, want one entry per value", got)
	}
}

func TestBuild_AuthRealm(t *testing.T) {
	tests := []struct {
		name           string
		scheme         AuthScheme
		wantPreemptive bool
		wantErr        bool
	}{
		{name: "basic is preemptive", scheme: AuthBasic, wantPreemptive: true},
		{name: "digest is not preemptive", scheme: AuthDigest, wantPreemptive: false},
		{name: "ntlm is preemptive", scheme: AuthNTLM, wantPreemptive: true},
		{name: "kerberos is preemptive", scheme: AuthKerberos, wantPreemptive: true},
		{name: "spnego is preemptive", scheme: AuthSPNEGO, wantPreemptive: true},
		{name: "unknown fails fast", scheme: AuthScheme("BOGUS"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			er, err := build(newTestRequest("http://example.com").WithAuth("user", "pass", tt.scheme))
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedScheme) {
					t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if er.Auth == nil {
				t.Fatal("realm not set")
			}
			if er.Auth.Scheme != tt.scheme {
				t.Errorf("scheme = %q", er.Auth.Scheme)
			}
			if er.Auth.UsePreemptiveAuth != tt.wantPreemptive {
				t.Errorf("preemptive = %v, want %v", er.Auth.UsePreemptiveAuth, tt.wantPreemptive)
			}
		})
	}
}

func TestBuild_ProxyRealm(t *testing.T) {
	tests := []struct {
		name       string
		proxy      ProxyServer
		wantScheme AuthScheme
		wantRealm  bool
		wantErr    bool
	}{
		{
			name:       "default protocol is basic",
			proxy:      ProxyServer{Host: "proxy.local", Port: 3128, Principal: "p", Password: "s"},
			wantScheme: AuthBasic,
			wantRealm:  true,
		},
		{
			name:       "ntlm with domain",
			proxy:      ProxyServer{Host: "proxy.local", Port: 3128, Protocol: "ntlm", Principal: "p", Password: "s", NTLMDomain: "CORP"},
			wantScheme: AuthNTLM,
			wantRealm:  true,
		},
		{
			name:       "protocol match is case-insensitive",
			proxy:      ProxyServer{Host: "proxy.local", Port: 3128, Protocol: "SPNEGO", Principal: "p"},
			wantScheme: AuthSPNEGO,
			wantRealm:  true,
		},
		{
			name:       "no principal means no realm",
			proxy:      ProxyServer{Host: "proxy.local", Port: 3128, Protocol: "https"},
			wantScheme: AuthBasic,
			wantRealm:  false,
		},
		{
			name:    "bogus protocol fails fast",
			proxy:   ProxyServer{Host: "proxy.local", Port: 3128, Protocol: "bogus", Principal: "p"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			er, err := build(newTestRequest("http://example.com").WithProxyServer(tt.proxy))
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedProxyProtocol) {
					t.Fatalf("expected ErrUnsupportedProxyProtocol, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if er.Proxy.Scheme != tt.wantScheme {
				t.Errorf("scheme = %q, want %q", er.Proxy.Scheme, tt.wantScheme)
			}
			if (er.Proxy.Realm != nil) != tt.wantRealm {
				t.Fatalf("realm presence = %v, want %v", er.Proxy.Realm != nil, tt.wantRealm)
			}
			if tt.proxy.NTLMDomain != "" && er.Proxy.Realm.NTLMDomain != tt.proxy.NTLMDomain {
				t.Errorf("ntlm domain = %q, want %q", er.Proxy.Realm.NTLMDomain, tt.proxy.NTLMDomain)
			}
		})
	}
}

func TestBuiltProxy_Bypass(t *testing.T) {
	proxy := &BuiltProxy{NonProxyHosts: []string{"localhost", "*.internal"}}

	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"db.internal", true},
		{"example.com", false},
	}
	for _, tt := range tests {
		if got := proxy.Bypass(tt.host); got != tt.want {
			t.Errorf("Bypass(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}

func TestBuild_OverridesOnlyWhenSet(t *testing.T) {
	er, err := build(newTestRequest("http://example.com"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if er.FollowRedirects != nil || er.TimeoutMillis != nil || er.Proxy != nil || er.VirtualHost != "" {
		t.Error("engine defaults must apply when nothing is set explicitly")
	}

	req, err := newTestRequest("http://example.com").
		WithFollowRedirects(false).
		WithVirtualHost("v.example.com").
		WithRequestTimeout(InfiniteTimeout)
	if err != nil {
		t.Fatalf("timeout: %v", err)
	}
	er, err = build(req)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if er.FollowRedirects == nil || *er.FollowRedirects {
		t.Error("redirect override lost")
	}
	if er.VirtualHost != "v.example.com" {
		t.Errorf("virtual host = %q", er.VirtualHost)
	}
	if er.TimeoutMillis == nil || *er.TimeoutMillis != -1 {
		t.Errorf("timeout = %v, want -1 sentinel", er.TimeoutMillis)
	}
}

func TestBuild_RejectsNonSignerCalculator(t *testing.T) {
	_, err := build(newTestRequest("http://example.com").Sign(notASigner{}))
	if !errors.Is(err, ErrUnsupportedSignatureCalculator) {
		t.Fatalf("expected ErrUnsupportedSignatureCalculator, got %v", err)
	}
}

func TestBuild_IsPureWithRespectToDescriptor(t *testing.T) {
	req := newTestRequest("http://example.com").
		WithHeader("Content-Length", "99").
		WithBody(StreamBody{Reader: strings.NewReader("x")})

	if _, err := build(req); err != nil {
		t.Fatalf("build: %v", err)
	}
	// The stream path strips Content-Length from the engine headers; the
	// descriptor keeps its own copy, so a rebuild sees the same input.
	if got := req.Headers().Get("Content-Length"); got != "99" {
		t.Errorf("descriptor headers mutated by build: %q", got)
	}
	er, err := build(req)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if er.ContentLength != 99 {
		t.Errorf("rebuild content length = %d", er.ContentLength)
	}
}
