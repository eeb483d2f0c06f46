// Package app wires the license verification service together.
//
// Startup order:
//
//  1. Load configuration (defaults, YAML file, LICENSEGATE_* environment)
//  2. Initialize the structured logger and OpenTelemetry
//  3. Parse the trusted public key and build the hardware identity source
//  4. Build services, then the chi router and its middleware chain
//  5. Listen on the configured loopback address
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests and
// flushes telemetry within the configured shutdown timeout.
package app
