// Package middleware provides the HTTP token-validation boundary: a net/http
// middleware that extracts the bearer credential, validates it through the
// engine, and exposes the resulting claims to downstream handlers. A missing
// or malformed Authorization header maps to 401 with no body detail.
package middleware
