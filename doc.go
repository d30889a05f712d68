// Package authcore implements the authentication and session lifecycle
// for the WorkHive marketplace platform: self-service registration with
// email OTP activation, dual-token login, a Redis-backed refresh-token
// registry, OTP-gated and first-login password changes, and hashed
// time-limited password resets.
//
// The package is designed for concurrent server workloads: Engine methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder],
// [Config], the collaborator interfaces ([UserStore], [Mailer],
// [Notifier]), and value types. Token signing lives in token/, password
// hashing in password/, the refresh registry in registry/, and secret
// generation in internal/.
//
// # What this package must NOT do
//
//   - Persist users itself. All credential-record storage goes through
//     the UserStore implementation the host application provides.
//   - Send email or notifications inline on the happy path beyond the
//     bounded Mailer calls; notification delivery is asynchronous and
//     best-effort.
//   - Expose Redis clients, token secrets, or hash parameters through
//     its public API.
package authcore
