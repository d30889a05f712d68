// Package httpapi exposes the HTTP surface of the authentication engine:
// one handler per lifecycle flow, mounted under /auth on a standard
// net/http mux.
//
// The package contains no business logic. Handlers parse requests, call
// the corresponding Engine method, translate sentinel errors to HTTP
// status codes, and manage the refresh-token cookie. The cookie is set
// and cleared with identical attributes; browsers silently ignore a
// clear whose attributes differ from the set.
//
// # What this package must NOT do
//
//   - Inspect or construct tokens (delegates to Engine).
//   - Touch the user store, Redis, or the mailer.
//   - Leak internal error text; only sentinel-mapped messages and the
//     explicitly forwarded mail-send error reach clients.
package httpapi
