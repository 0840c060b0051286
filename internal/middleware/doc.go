// Package middleware provides the HTTP middleware of the preview service:
// a W3C Extended Log Format access log and Prometheus request metrics.
// Health checks can be left out of both.
package middleware
