// Package account manages credentials and sessions for a remote metaverse API.
//
// The Manager acquires access tokens through the OAuth password grant,
// persists them per authority URL, gates outgoing requests on token validity
// and correlates asynchronous completions back to caller-supplied callbacks.
// Expensive RSA keypair generation is offloaded to a worker goroutine whose
// public key is uploaded to the API once the private half has been persisted.
//
// A Manager is an explicitly constructed service with a documented lifecycle:
// create it once with New, share it between the flows that need it and Close
// it at shutdown.
//
// Example:
//
//	manager := account.New(account.WithListener(account.Listener{
//		OnLoginSucceeded: func(root *url.URL) { fmt.Println("logged in to", root) },
//		OnLoginFailed:    func(reason string) { fmt.Println("login failed:", reason) },
//	}))
//	defer manager.Close()
//
//	authority, _ := url.Parse("https://metaverse.example.com")
//	manager.SetAuthority(ctx, authority)
//	manager.RequestAccessToken(ctx, "alice", "secret")
//
// All failures stay inside the manager: transport errors reach the registered
// error callback, everything else is logged, and no call panics or blocks the
// caller on network I/O.
package account
