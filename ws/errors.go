package ws

import "errors"

// Configuration errors. All of these are fatal and surface synchronously,
// either from the offending With* call or from build; none are retried.
var (
	// ErrInvalidTimeout is returned by WithRequestTimeout for durations
	// outside the signed 32-bit millisecond range (InfiniteTimeout excepted).
	ErrInvalidTimeout = errors.New("request timeout must be InfiniteTimeout or between 0 and 2147483647 milliseconds")

	// ErrUnsupportedScheme is returned at build time for an unknown
	// authentication scheme. Unknown schemes never fall back to a default.
	ErrUnsupportedScheme = errors.New("unsupported auth scheme")

	// ErrUnsupportedProxyProtocol is returned at build time for a proxy
	// protocol outside http, https, ntlm, kerberos, spnego.
	ErrUnsupportedProxyProtocol = errors.New("unsupported proxy protocol")

	// ErrUnsupportedSignatureCalculator is returned at build time when the
	// attached signature calculator does not implement EngineSigner.
	ErrUnsupportedSignatureCalculator = errors.New("signature calculator does not implement EngineSigner")

	// ErrUnsupportedCharset is returned at build time when a signed
	// form-encoded body declares a charset that cannot be decoded.
	ErrUnsupportedCharset = errors.New("unsupported charset")
)
