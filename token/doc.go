// Package token mints and verifies the dual-token credentials used by the
// authcore engine: short-lived access tokens and longer-lived refresh
// tokens, HS256-signed with distinct secrets.
//
// # Claims
//
// Tokens carry only the registered claims (sub, iss, iat, exp); the user id
// travels in the subject. There is no role, permission, or session payload
// — every other attribute is resolved from the credential store at use time.
//
// # Architecture boundaries
//
// This package owns signing and verification only. Refresh-token revocation
// lives in the registry package: the engine treats a refresh token as valid
// only when the signature verifies AND the registry still holds that exact
// token for the user.
//
// # What this package must NOT do
//
//   - Access Redis or the credential store.
//   - Distinguish expiry from tampering in its error surface.
//   - Import any other authcore package.
package token
