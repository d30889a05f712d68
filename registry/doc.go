// Package registry provides the Redis-backed refresh-token registry: a
// mapping from user id to that user's single currently valid refresh token.
//
// # Semantics
//
// One live entry per user. Put overwrites (a later login supersedes the
// earlier one's refresh token), Revoke deletes (logout), and Redis TTL
// expires entries without explicit cleanup. Already-issued access tokens
// are unaffected by overwrite or revocation; they remain valid until their
// own expiry.
//
// # Architecture boundaries
//
// This package owns storage only. Matching the presented token against the
// stored one, and every other acceptance decision, happens in the Engine.
//
// # What this package must NOT do
//
//   - Parse or verify JWTs.
//   - Import any other authcore package.
package registry
