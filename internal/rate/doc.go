// Package rate provides the Redis-backed fixed-window counter used to
// throttle credential refresh attempts.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefix:
//   - cr: — refresh per-subject
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (the engine decides when to check).
//   - Be imported outside the clubauth module.
package rate
