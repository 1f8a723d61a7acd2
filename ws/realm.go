package ws

import "fmt"

// AuthScheme identifies an authentication scheme for a request or proxy realm.
type AuthScheme string

const (
	AuthBasic    AuthScheme = "BASIC"
	AuthDigest   AuthScheme = "DIGEST"
	AuthNTLM     AuthScheme = "NTLM"
	AuthKerberos AuthScheme = "KERBEROS"
	AuthSPNEGO   AuthScheme = "SPNEGO"
)

// Realm is an authentication context attached to a built request or proxy.
//
// UsePreemptiveAuth controls whether credentials are sent with the first
// attempt rather than after a 401 challenge. DIGEST is challenge-based and
// therefore never preemptive; every other scheme is.
type Realm struct {
	Scheme            AuthScheme
	Username          string
	Password          string
	UsePreemptiveAuth bool

	// NTLMDomain and Charset are proxy-realm refinements, applied only
	// when the proxy descriptor sets them.
	NTLMDomain string
	Charset    string
}

func newAuthRealm(username, password string, scheme AuthScheme) (*Realm, error) {
	switch scheme {
	case AuthBasic, AuthDigest, AuthNTLM, AuthKerberos, AuthSPNEGO:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	return &Realm{
		Scheme:            scheme,
		Username:          username,
		Password:          password,
		UsePreemptiveAuth: scheme != AuthDigest,
	}, nil
}
