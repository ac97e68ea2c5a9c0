// Package authz is the pure authorization evaluator: given a decoded claim
// set and a requested scope it returns an allow/deny decision.
//
// Evaluation is a fixed rule chain, first match wins:
//
//  1. A system admin satisfies every scope unconditionally.
//  2. A system-admin scope without that flag is denied.
//  3. A club-admin scope is satisfied by a matching admin context or by a
//     membership entry carrying the ADMIN role for that club.
//  4. A plain authenticated scope is satisfied by any decoded claim set.
//
// The evaluator never performs I/O. When a request carries only a resource
// id, resolving it to the owning club happens before evaluation (see the
// engine's AuthorizeResource).
package authz
