package ws

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Digest authentication is challenge-based: the first attempt goes out
// without credentials, and the 401 challenge is answered with a computed
// Authorization header. The engine has no digest support of its own, so
// the facade performs the single challenge round itself.

type digestChallenge struct {
	realm     string
	nonce     string
	opaque    string
	algorithm string
	qop       string
	stale     bool
}

var errNotDigestChallenge = errors.New("not a digest challenge")

// parseDigestChallenge parses a WWW-Authenticate header value of the
// Digest scheme into its parameters.
func parseDigestChallenge(header string) (*digestChallenge, error) {
	const prefix = "digest "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, errNotDigestChallenge
	}

	ch := &digestChallenge{algorithm: "MD5"}
	for _, part := range splitChallengeParams(header[len(prefix):]) {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.Trim(strings.TrimSpace(value), `"`)
		switch name {
		case "realm":
			ch.realm = value
		case "nonce":
			ch.nonce = value
		case "opaque":
			ch.opaque = value
		case "algorithm":
			ch.algorithm = value
		case "qop":
			// A challenge may offer several qop values; only auth is supported.
			for _, q := range strings.Split(value, ",") {
				if strings.TrimSpace(q) == "auth" {
					ch.qop = "auth"
				}
			}
		case "stale":
			ch.stale = strings.EqualFold(value, "true")
		}
	}
	if ch.nonce == "" {
		return nil, fmt.Errorf("digest challenge missing nonce: %q", header)
	}
	return ch, nil
}

// splitChallengeParams splits on commas that are outside quoted strings.
func splitChallengeParams(s string) []string {
	var parts []string
	var b strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			b.WriteRune(r)
		case r == ',' && !inQuotes:
			parts = append(parts, strings.TrimSpace(b.String()))
			b.Reset()
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, strings.TrimSpace(b.String()))
	}
	return parts
}

// answerDigest computes the Authorization header value answering ch for
// the given method and request URI. Supports MD5 and MD5-sess with
// qop=auth or the legacy no-qop form.
func answerDigest(ch *digestChallenge, username, password, method, uri, cnonce string) (string, error) {
	const nc = "00000001"

	var h func(parts ...string) string
	switch strings.ToUpper(strings.TrimSuffix(ch.algorithm, "-sess")) {
	case "", "MD5":
		h = md5Hex
	default:
		return "", fmt.Errorf("unsupported digest algorithm %q", ch.algorithm)
	}

	ha1 := h(username, ch.realm, password)
	if strings.HasSuffix(strings.ToLower(ch.algorithm), "-sess") {
		ha1 = h(ha1, ch.nonce, cnonce)
	}
	ha2 := h(method, uri)

	var response string
	if ch.qop == "auth" {
		response = h(ha1, ch.nonce, nc, cnonce, "auth", ha2)
	} else {
		response = h(ha1, ch.nonce, ha2)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Digest username=%q, realm=%q, nonce=%q, uri=%q, response=%q`,
		username, ch.realm, ch.nonce, uri, response)
	if ch.qop == "auth" {
		fmt.Fprintf(&b, `, qop=auth, nc=%s, cnonce=%q`, nc, cnonce)
	}
	if ch.opaque != "" {
		fmt.Fprintf(&b, `, opaque=%q`, ch.opaque)
	}
	if ch.algorithm != "" {
		fmt.Fprintf(&b, `, algorithm=%s`, ch.algorithm)
	}
	return b.String(), nil
}

func md5Hex(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

func newCnonce() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; a zero cnonce
		// still yields a correct (if predictable) response.
		return "00000000"
	}
	return hex.EncodeToString(buf[:])
}
