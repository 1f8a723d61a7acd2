package ws

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ProxyServer describes an outbound proxy for a single request.
//
// Protocol selects the proxy authentication protocol and defaults to
// "http" when empty. Principal/Password, when set, become the proxy
// realm's credentials. NonProxyHosts lists bypass patterns: either exact
// hostnames or "*." wildcard suffix patterns such as "*.internal".
type ProxyServer struct {
	Host          string
	Port          int
	Protocol      string
	Principal     string
	Password      string
	NTLMDomain    string
	Encoding      string
	NonProxyHosts []string
}

// BuiltProxy is the resolved proxy carried on an EngineRequest: endpoint,
// optional auth realm, and bypass patterns passed through verbatim.
type BuiltProxy struct {
	Host          string
	Port          int
	Scheme        AuthScheme
	Realm         *Realm
	NonProxyHosts []string
}

// URL returns the proxy endpoint for the engine's transport. Basic realm
// credentials ride in the userinfo so the engine emits Proxy-Authorization.
func (p *BuiltProxy) URL() *url.URL {
	u := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
	}
	if p.Realm != nil && p.Realm.Scheme == AuthBasic {
		u.User = url.UserPassword(p.Realm.Username, p.Realm.Password)
	}
	return u
}

// Bypass reports whether host matches one of the non-proxy patterns.
func (p *BuiltProxy) Bypass(host string) bool {
	for _, pattern := range p.NonProxyHosts {
		if strings.EqualFold(pattern, host) {
			return true
		}
		if strings.HasPrefix(pattern, "*") &&
			strings.HasSuffix(strings.ToLower(host), strings.ToLower(pattern[1:])) {
			return true
		}
	}
	return false
}

// buildProxy resolves a proxy descriptor into the engine's proxy shape.
// The protocol string maps to an auth scheme case-insensitively:
// http/https to BASIC, kerberos, ntlm, and spnego to their own schemes.
// Anything else fails rather than degrading to a weaker scheme.
func buildProxy(p *ProxyServer) (*BuiltProxy, error) {
	protocol := p.Protocol
	if protocol == "" {
		protocol = "http"
	}

	var scheme AuthScheme
	switch strings.ToLower(protocol) {
	case "http", "https":
		scheme = AuthBasic
	case "kerberos":
		scheme = AuthKerberos
	case "ntlm":
		scheme = AuthNTLM
	case "spnego":
		scheme = AuthSPNEGO
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProxyProtocol, p.Protocol)
	}

	built := &BuiltProxy{
		Host:          p.Host,
		Port:          p.Port,
		Scheme:        scheme,
		NonProxyHosts: append([]string(nil), p.NonProxyHosts...),
	}

	if p.Principal != "" {
		realm := &Realm{
			Scheme:            scheme,
			Username:          p.Principal,
			Password:          p.Password,
			UsePreemptiveAuth: scheme != AuthDigest,
		}
		if p.NTLMDomain != "" {
			realm.NTLMDomain = p.NTLMDomain
		}
		if p.Encoding != "" {
			realm.Charset = p.Encoding
		}
		built.Realm = realm
	}

	return built, nil
}
