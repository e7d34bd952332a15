package transport

import (
	"context"
	"net/http"
)

// Handle identifies one in-flight request issued through the dispatcher.
type Handle uint64

// Part is a single form part of a multipart request body.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Data        []byte
}

// ProgressFunc receives upload progress while a request body is being sent.
type ProgressFunc func(sent, total int64)

// Request describes one HTTP exchange against the metaverse API.
type Request struct {
	Method string
	URL    string
	Header http.Header
	// Body is the raw request body; ignored when Parts is non-empty.
	Body []byte
	// Parts, when non-empty, is encoded as a multipart/form-data body whose
	// lifetime is tied to this request.
	Parts []Part
	// Properties carries caller-supplied opaque values; they are copied onto
	// the Response for later inspection by callbacks.
	Properties map[string]any
	Progress   ProgressFunc
}

// Response is the single completion event of a request.
type Response struct {
	Handle     Handle
	URL        string
	StatusCode int
	Body       []byte
	// Err is set on transport-level failure; the response then carries no
	// status code or body.
	Err        error
	Properties map[string]any
}

// OK reports whether the exchange completed without a transport failure or an
// HTTP error status.
func (r *Response) OK() bool {
	return r.Err == nil && r.StatusCode < http.StatusBadRequest
}

// Service performs a single blocking HTTP exchange.
type Service interface {
	Do(ctx context.Context, request *Request) *Response
}
