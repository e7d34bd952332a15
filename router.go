package account

import "github.com/metaversekit/account/transport"

// route delivers one completed request to its registered callbacks. The
// pending entry is taken exactly once, at completion; a response with no
// matching target is dropped.
func (m *Manager) route(response *transport.Response) {
	callbacks, tracked := m.pending.Take(response.Handle)

	if response.OK() {
		if tracked && callbacks.OnSuccess != nil {
			callbacks.OnSuccess(response)
			return
		}
		if m.verbose {
			m.logger.Debug("received response that has no matching callback", "url", response.URL)
		}
		return
	}

	if tracked && callbacks.OnError != nil {
		callbacks.OnError(response)
		return
	}
	if m.verbose {
		m.logger.Debug("received error response that has no matching callback",
			"url", response.URL, "status", response.StatusCode, "error", response.Err)
	}
}
