// Package middleware contains the HTTP middleware chain of the local
// verification API: request ids, OpenTelemetry spans and metrics, request
// logging, panic recovery, rate limiting, body limits, timeouts, security
// headers, and request validation.
package middleware
