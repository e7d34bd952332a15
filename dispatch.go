package account

import (
	"context"
	"net/http"
	"strings"

	"github.com/metaversekit/account/transport"
)

// AuthMode controls how an access token is attached to a dispatched request.
type AuthMode int

const (
	// AuthNone never attaches an authorization header.
	AuthNone AuthMode = iota
	// AuthOptional attaches the header only when a valid token exists;
	// absence of a token does not block the call.
	AuthOptional
	// AuthRequired abandons the request when no valid token exists.
	AuthRequired
)

// Callbacks correlates a dispatched request with its completion handling.
// OnSuccess and OnError are consumed by the response router; OnProgress is
// wired to transport-level progress events directly.
type Callbacks struct {
	OnSuccess  func(response *transport.Response)
	OnError    func(response *transport.Response)
	OnProgress transport.ProgressFunc
}

// IsEmpty reports whether no callback is registered.
func (c Callbacks) IsEmpty() bool {
	return c.OnSuccess == nil && c.OnError == nil && c.OnProgress == nil
}

// Request describes an API call routed through the dispatch queue.
type Request struct {
	// Path is resolved against the current authority; a missing leading
	// slash is added.
	Path      string
	Auth      AuthMode
	Method    string
	Callbacks Callbacks
	// Body is a raw request body, sent as application/json for POST and PUT.
	Body []byte
	// Parts, when non-empty, forms a multipart body tied to this request.
	Parts []transport.Part
	// Properties are opaque caller values surfaced on the response.
	Properties map[string]any
}

type pendingRequest struct {
	ctx     context.Context
	request *Request
}

const authorizationHeader = "Authorization"

// Dispatch publishes a request onto the manager's dispatch queue and returns
// immediately. The queue's sole consumer performs authentication gating and
// issues the request; completion is delivered to the registered callbacks by
// the response router.
func (m *Manager) Dispatch(ctx context.Context, request *Request) {
	select {
	case m.queue <- &pendingRequest{ctx: ctx, request: request}:
	case <-m.closed:
		m.logger.Debug("dispatch after close dropped", "path", request.Path)
	}
}

// run is the sole consumer of the dispatch queue.
func (m *Manager) run() {
	defer m.wg.Done()
	for {
		select {
		case pending := <-m.queue:
			m.issue(pending.ctx, pending.request)
		case <-m.closed:
			return
		}
	}
}

// issue performs authentication gating, starts the exchange on its own
// goroutine and registers the pending-callback entry for the router.
func (m *Manager) issue(ctx context.Context, request *Request) {
	switch request.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		m.logger.Warn("unsupported request method", "method", request.Method, "path", request.Path)
		return
	}

	authority := m.AuthorityURL()
	if authority == nil {
		m.logger.Warn("no authority set, dropping request", "path", request.Path)
		return
	}
	target := *authority
	if strings.HasPrefix(request.Path, "/") {
		target.Path = request.Path
	} else {
		target.Path = "/" + request.Path
	}

	header := http.Header{}
	if request.Auth != AuthNone {
		if m.HasValidAccessToken() {
			header.Set(authorizationHeader, m.authorizationHeaderValue())
		} else if request.Auth == AuthRequired {
			m.logger.Debug("no valid access token present, bailing on request that requires authentication", "path", request.Path)
			return
		}
	}
	if len(request.Body) > 0 && len(request.Parts) == 0 &&
		(request.Method == http.MethodPost || request.Method == http.MethodPut) {
		header.Set("Content-Type", "application/json")
	}

	if m.verbose {
		m.logger.Debug("making a request", "method", request.Method, "url", target.String())
		if len(request.Body) > 0 {
			m.logger.Debug("request body", "body", string(request.Body))
		}
	}

	outbound := &transport.Request{
		Method:     request.Method,
		URL:        target.String(),
		Header:     header,
		Body:       request.Body,
		Parts:      request.Parts,
		Properties: request.Properties,
		Progress:   request.Callbacks.OnProgress,
	}

	handle := transport.Handle(m.handles.Add(1))
	if !request.Callbacks.IsEmpty() {
		m.pending.Put(handle, request.Callbacks)
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		response := m.client.Do(ctx, outbound)
		response.Handle = handle
		m.route(response)
	}()
}
