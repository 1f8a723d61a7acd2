package ws

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"time"
)

// TimingInfo captures per-phase latencies for a single exchange.
type TimingInfo struct {
	StartTime           time.Time
	DNSLookupTime       time.Duration
	TCPConnectTime      time.Duration
	TLSHandshakeTime    time.Duration
	TimeToFirstByte     time.Duration
	ContentTransferTime time.Duration
	TotalTime           time.Duration
}

// withClientTrace installs an httptrace that fills t as the exchange
// progresses. Reused connections skip the DNS/connect/TLS phases, so
// time-to-first-byte is measured from the end of the last phase that
// actually ran.
func withClientTrace(ctx context.Context, t *TimingInfo) context.Context {
	var dnsStart, connectStart, tlsStart time.Time
	var dnsDone, connectDone bool

	t.StartTime = time.Now()
	lastPhaseEnd := t.StartTime

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			end := time.Now()
			t.DNSLookupTime = end.Sub(dnsStart)
			dnsDone = true
			lastPhaseEnd = end
		},
		ConnectStart: func(network, addr string) {
			if dnsDone {
				connectStart = time.Now()
			}
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				end := time.Now()
				t.TCPConnectTime = end.Sub(connectStart)
				connectDone = true
				lastPhaseEnd = end
			}
		},
		TLSHandshakeStart: func() {
			if connectDone {
				tlsStart = time.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				end := time.Now()
				t.TLSHandshakeTime = end.Sub(tlsStart)
				lastPhaseEnd = end
			}
		},
		GotFirstResponseByte: func() {
			t.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}

	return httptrace.WithClientTrace(ctx, trace)
}
