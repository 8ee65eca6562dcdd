// Package server provides the local HTTP plumbing for provider authorization.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. The [BasicRouter] implementation uses
// [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Flow
//
// [OAuthHandler] implements the OAuth2 authorization code callback: it
// validates the state parameter (CSRF protection), exchanges the
// authorization code for tokens, and sends the result through a channel. It
// only processes one callback to prevent replay attacks.
//
// [Flow] ties the pieces together for the CLI: it starts a temporary server
// on localhost, opens the provider's consent page in the browser, waits for
// the callback, and shuts the server down again. The resulting token is
// persisted to the config file by the caller.
package server
