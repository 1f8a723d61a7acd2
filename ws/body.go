package ws

import "io"

// Body is the closed set of request payload representations. The builder
// resolves each variant to a concrete encoding strategy; see build.
//
// Implementations: EmptyBody, BytesBody, FileBody, StreamBody.
type Body interface {
	isBody()
}

// EmptyBody is a request with no payload.
type EmptyBody struct{}

// BytesBody is a fully buffered in-memory payload.
type BytesBody []byte

// FileBody is a payload streamed from a file on disk. The engine is
// responsible for chunking and Content-Length.
type FileBody string

// StreamBody is a lazy, possibly unbounded payload read from r. The
// length is taken from an explicit Content-Length header if one is set
// on the request, otherwise the engine falls back to chunked transfer.
type StreamBody struct {
	Reader io.Reader
}

func (EmptyBody) isBody()  {}
func (BytesBody) isBody()  {}
func (FileBody) isBody()   {}
func (StreamBody) isBody() {}

// StringBody is a convenience for a buffered text payload.
func StringBody(s string) BytesBody {
	return BytesBody(s)
}
