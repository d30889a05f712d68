// Package middleware exposes the HTTP guard that protects authenticated
// routes using authcore.Engine access-token validation.
//
// [Guard] reads the Authorization header, calls Engine.ValidateAccess,
// and injects the authenticated user ID into the request context, where
// handlers retrieve it with [UserIDFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis or the user store.
//   - Make decisions beyond pass/reject from Engine.ValidateAccess.
package middleware
