// Package server runs the short-lived loopback HTTP server used to finish a Spotify login.
//
// # Routing
//
// [Router] registers handlers behind a [Middleware] stack. [BasicRouter] is backed by
// [http.ServeMux]; routes registered through [BasicRouter.Handle] reject other methods
// with 405.
//
// Middleware wraps in reverse order, so the first middleware added sees the request first.
// [Logging] and [Recover] are provided.
//
// # OAuth Callback
//
// [OAuthHandler] accepts exactly one authorization code redirect. It checks the state
// parameter, exchanges the code using the request context and publishes a single
// [OAuthResult]. Later hits receive 400.
//
// [WaitForCallback] serves a handler on an address until the result arrives, the context
// is cancelled or the timeout elapses, and then shuts the listener down.
package server
