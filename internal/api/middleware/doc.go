// Package middleware holds the HTTP middleware shared by every route:
// bearer authentication, request tracing and per-user run rate limiting.
package middleware
