// Package middleware adapts the engine to net/http: session cookies per
// flavor, a per-request guard, and the trust headers internal services read
// instead of re-verifying credentials.
package middleware
