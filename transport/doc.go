// Package transport defines the HTTP boundary of the account manager.
//
// A Service performs one blocking exchange per Request and returns a single
// Response; correlation of completions with caller callbacks is the concern of
// the dispatching layer, not of the transport. The default implementation wraps
// net/http and adds multipart form bodies and upload progress reporting.
package transport
