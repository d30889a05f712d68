// Package internal holds secret generation shared by the authcore engine:
// numeric one-time codes, hex reset tokens with their SHA-256 hashing, and
// temporary passwords for administrator-provisioned accounts.
//
// # Architecture boundaries
//
// This package owns entropy and encoding only. TTL policy, persistence, and
// delivery of the generated secrets belong to the Engine.
//
// # What this package must NOT do
//
//   - Persist or log any generated secret.
//   - Import any other authcore package.
package internal
