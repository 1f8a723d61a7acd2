// Package output renders requests and responses for terminal display.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/avlberg/wsclient/ws"
)

// Formatter renders requests and responses as human-readable text.
type Formatter struct {
	Verbose bool
	scheme  *ColorScheme
}

// NewFormatter creates a formatter. Color is disabled when noColor is set
// or stdout is not a terminal.
func NewFormatter(verbose, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor || !IsTerminal() {
		scheme = NoColorScheme()
	}
	return &Formatter{Verbose: verbose, scheme: scheme}
}

// FormatRequest renders the request line and, in verbose mode, its headers.
func (f *Formatter) FormatRequest(req *ws.Request) string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "▶ REQUEST: %s %s\n",
		f.scheme.Method.Sprint(req.Method()),
		f.scheme.URL.Sprint(req.DisplayURL()))

	headers := req.Headers()
	if f.Verbose && headers.Len() > 0 {
		buf.WriteString("  Headers:\n")
		headers.ForEach(func(name, value string) {
			fmt.Fprintf(&buf, "    %s: %s\n",
				f.scheme.HeaderKey.Sprint(name),
				f.scheme.HeaderValue.Sprint(value))
		})
	}

	return buf.String()
}

// FormatResponse renders the status line, timing and headers in verbose
// mode, and the body with JSON pretty-printed.
func (f *Formatter) FormatResponse(resp *ws.Response) string {
	var buf strings.Builder

	status := f.scheme.StatusError
	switch {
	case resp.IsSuccess():
		status = f.scheme.StatusOK
	case resp.IsRedirect():
		status = f.scheme.StatusWarn
	}
	fmt.Fprintf(&buf, "◀ RESPONSE: %s (%dms)\n",
		status.Sprint(resp.Status),
		resp.Timing.TotalTime.Milliseconds())

	if f.Verbose {
		t := resp.Timing
		buf.WriteString("  Timing:\n")
		fmt.Fprintf(&buf, "    DNS Lookup:         %dms\n", t.DNSLookupTime.Milliseconds())
		fmt.Fprintf(&buf, "    TCP Connection:     %dms\n", t.TCPConnectTime.Milliseconds())
		fmt.Fprintf(&buf, "    TLS Handshake:      %dms\n", t.TLSHandshakeTime.Milliseconds())
		fmt.Fprintf(&buf, "    Time to First Byte: %dms\n", t.TimeToFirstByte.Milliseconds())
		fmt.Fprintf(&buf, "    Content Transfer:   %dms\n", t.ContentTransferTime.Milliseconds())
		fmt.Fprintf(&buf, "    Total:              %dms\n", t.TotalTime.Milliseconds())

		buf.WriteString("  Headers:\n")
		resp.Headers().ForEach(func(name, value string) {
			fmt.Fprintf(&buf, "    %s: %s\n",
				f.scheme.HeaderKey.Sprint(name),
				f.scheme.HeaderValue.Sprint(value))
		})
	}

	if body, err := resp.Text(); err == nil && body != "" {
		buf.WriteString("  Body:\n")
		buf.WriteString(indentBody(prettyJSON(body)))
		buf.WriteString("\n")
	}

	return buf.String()
}

// prettyJSON indents a JSON body, returning non-JSON input unchanged.
func prettyJSON(s string) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(s), "", "  "); err != nil {
		return s
	}
	return pretty.String()
}

func indentBody(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
