// Package flows contains the credential-lifecycle state machines, expressed
// as pure functions over an injected deps struct so the root package can
// map failures to its sentinel errors, metrics, and audit events.
//
// # Architecture boundaries
//
// Flow functions never touch redis or the membership store directly; every
// external effect arrives through a deps field. They must not import the
// root clubauth package.
package flows
