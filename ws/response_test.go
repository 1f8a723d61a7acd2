package ws

import (
	"net/http"
	"reflect"
	"testing"
)

func responseWithHeader(h http.Header) *http.Response {
	return &http.Response{
		StatusCode: 200,
		Status:     "200 OK",
		Header:     h,
	}
}

func TestResponse_HeadersAnyCase(t *testing.T) {
	raw := http.Header{}
	raw.Add("Foo", "bar")
	raw.Add("Foo", "baz")
	raw.Add("Bar", "baz")

	resp := newResponse(responseWithHeader(raw), nil, TimingInfo{})

	for _, name := range []string{"Foo", "foo", "fOO"} {
		if got := resp.HeaderValues(name); !reflect.DeepEqual(got, []string{"bar", "baz"}) {
			t.Errorf("HeaderValues(%q) = %v, want [bar baz]", name, got)
		}
	}
	for _, name := range []string{"Bar", "BAR"} {
		if got := resp.Header(name); got != "baz" {
			t.Errorf("Header(%q) = %q, want baz", name, got)
		}
	}
}

func TestResponse_CookieMaxAgeSentinel(t *testing.T) {
	raw := http.Header{}
	// Max-Age=0 parses to the engine sentinel -1; it must surface as absent.
	raw.Add("Set-Cookie", "expired=gone; Max-Age=0; Path=/")
	raw.Add("Set-Cookie", "session=abc123; Max-Age=3600; Domain=example.com; Path=/; Secure; HttpOnly")
	raw.Add("Set-Cookie", "plain=v")

	resp := newResponse(responseWithHeader(raw), nil, TimingInfo{})

	expired, ok := resp.Cookie("expired")
	if !ok {
		t.Fatal("expired cookie missing")
	}
	if expired.MaxAge != nil {
		t.Errorf("sentinel max-age surfaced as %d, want absent", *expired.MaxAge)
	}

	session, ok := resp.Cookie("session")
	if !ok {
		t.Fatal("session cookie missing")
	}
	if session.MaxAge == nil || *session.MaxAge != 3600 {
		t.Errorf("session max-age = %v, want 3600", session.MaxAge)
	}
	if session.Domain != "example.com" || session.Path != "/" {
		t.Errorf("cookie attrs = %q %q", session.Domain, session.Path)
	}
	if !session.Secure || !session.HTTPOnly {
		t.Error("secure/httponly flags lost")
	}

	plain, ok := resp.Cookie("plain")
	if !ok {
		t.Fatal("plain cookie missing")
	}
	if plain.MaxAge != nil {
		t.Error("unset max-age must be absent")
	}
}

func TestResponse_BodyBytesVerbatim(t *testing.T) {
	body := []byte{0x00, 0xff, 0x10}
	resp := newResponse(responseWithHeader(http.Header{}), body, TimingInfo{})
	if !reflect.DeepEqual(resp.Body(), body) {
		t.Errorf("body = %v, want raw bytes untouched", resp.Body())
	}
}

func TestResponse_TextCharset(t *testing.T) {
	raw := http.Header{}
	raw.Set("Content-Type", "text/plain; charset=iso-8859-1")
	resp := newResponse(responseWithHeader(raw), []byte{'c', 'a', 'f', 0xe9}, TimingInfo{})

	text, err := resp.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "café" {
		t.Errorf("text = %q, want café", text)
	}

	// Caller-supplied charset wins over the header.
	utf8Text, err := resp.TextWithCharset("utf-8")
	if err != nil {
		t.Fatalf("TextWithCharset: %v", err)
	}
	if utf8Text == text {
		t.Error("caller charset ignored")
	}
}

func TestResponse_TextDefaultUTF8(t *testing.T) {
	resp := newResponse(responseWithHeader(http.Header{}), []byte("héllo"), TimingInfo{})
	text, err := resp.Text()
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "héllo" {
		t.Errorf("text = %q", text)
	}
}

func TestResponse_JSON(t *testing.T) {
	resp := newResponse(responseWithHeader(http.Header{}), []byte(`{"message":"ok","code":7}`), TimingInfo{})

	var out struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	}
	if err := resp.JSON(&out); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if out.Message != "ok" || out.Code != 7 {
		t.Errorf("decoded = %+v", out)
	}
}

func TestResponse_StatusClasses(t *testing.T) {
	tests := []struct {
		code                                        int
		success, redirect, clientError, serverError bool
	}{
		{200, true, false, false, false},
		{204, true, false, false, false},
		{301, false, true, false, false},
		{404, false, false, true, false},
		{503, false, false, false, true},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.code}
		if resp.IsSuccess() != tt.success ||
			resp.IsRedirect() != tt.redirect ||
			resp.IsClientError() != tt.clientError ||
			resp.IsServerError() != tt.serverError {
			t.Errorf("status %d classified wrong", tt.code)
		}
	}
}
