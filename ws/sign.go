package ws

// SignatureCalculator marks a value attached via Request.Sign. It is
// deliberately untyped: applications may carry signer implementations from
// other libraries. The builder requires the concrete value to implement
// EngineSigner and fails the build otherwise; an unrecognized calculator
// is never silently ignored.
type SignatureCalculator interface{}

// EngineSigner is the capability the builder invokes against the
// in-progress engine request, after headers and body are resolved but
// before the request is finalized. Implementations may inspect and mutate
// headers and form parameters, e.g. to attach an OAuth signature. Signing
// over form fields requires the structured form-parameter path, which the
// builder selects automatically for form-encoded byte bodies when a
// calculator is attached.
type EngineSigner interface {
	SignRequest(r *EngineRequest) error
}
