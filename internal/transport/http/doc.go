// Package http implements the handlers of the local verification API.
//
// Handlers stay thin: they bind and validate the request, call a service,
// and render either the JSON result or an RFC 7807 problem document through
// the shared error handler.
//
//	POST /api/license/verify   verify a license for this device
//	GET  /api/license/hwid     hardware identifier licenses must be bound to
//	GET  /api/health           public key and hardware identity probes
//	GET  /api/version          build information
//	GET  /metrics              Prometheus exposition
package http
