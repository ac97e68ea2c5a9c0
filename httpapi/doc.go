// Package httpapi exposes the session endpoints served at the platform
// edge: one refresh route per session flavor and a credential verification
// route for internal services.
package httpapi
