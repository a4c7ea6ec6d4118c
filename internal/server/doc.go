// Package server runs the local HTTP endpoint that completes the Spotify authorization code flow.
//
// [OAuthHandler] validates the state parameter, exchanges the code through an [Exchanger] and
// publishes exactly one [OAuthResult]. Later callbacks are rejected.
//
// [BasicRouter] wraps an [http.ServeMux] with method filtering and a [Middleware] stack, applied
// in reverse order (last added executes first). [CallbackServer] serves a router until the
// caller has its token; [WaitForToken] bounds the wait.
//
// Both `ytsync auth` and `ytsync sync` (when no refresh token is configured) start a server on
// the host and port from the [server] config section, open the browser on the authorization
// URL and shut the server down once the token arrives.
package server
