// Package token implements the signed-credential codec for clubauth: it
// serializes a claim set into a compact signed JWT and back, mints
// access/refresh pairs, and verifies presented credentials.
//
// # Design
//
// Encoding and verification are pure given a caller-supplied clock; the
// Manager holds only immutable configuration and is safe for concurrent use.
// Access and refresh credentials share one wire format and one verification
// path, discriminated by the "knd" claim so that one flavor can never stand
// in for the other.
//
// # Expiry boundary
//
// A credential is valid through its expiry instant: verification fails only
// when now is strictly after exp. The upstream JWT validator treats equality
// as expired, so the Manager parses with claims validation disabled and
// applies the boundary itself.
//
// # What this package must NOT do
//
//   - Perform store lookups or any I/O.
//   - Decide authorization (that lives in package authz).
package token
