// Package audit defines the audit event model and the asynchronous
// dispatcher that forwards events from the engine hot path to a sink
// without blocking request handling.
//
// # What this package must NOT do
//
//   - Perform authorization decisions.
//   - Import the root clubauth package.
package audit
