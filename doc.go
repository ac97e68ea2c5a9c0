// Package clubauth is the session and authorization core for a flying-club
// records platform: signed credential pairs, two session flavors (pilot and
// club-admin), stateless per-request verification, and refresh rotation
// with out-of-band revocation.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// clubauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (MetricsSnapshot, TokenPair, etc.). Flow orchestration,
// rate limiting, resolution caching, and audit dispatch live under
// internal/ and are never exported. Credential encoding lives in the token
// sub-package, claim evaluation in authz, and HTTP adapters in middleware
// and httpapi.
//
// # Trust model
//
// An access credential is a time-boxed snapshot of what the membership
// store asserted at issuance. Verification checks signature, structure, and
// expiry only; it never consults the store, so out-of-band changes (role
// downgrades, account deactivation) take effect no later than the next
// refresh, when the engine re-validates against current store state and
// rebuilds the claims.
//
// # Performance contract
//
// VerifyAccess and Authorize are the hot path: no store access, no Redis
// round-trips, allocation bounded by the decoded claim set. Refresh and
// session issuance are allowed store lookups and one Redis round-trip for
// the throttle.
package clubauth
