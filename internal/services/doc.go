// Package services implements the application layer between the HTTP
// transport and the license core.
//
// LicenseService wraps license.Verifier with a span per call, the
// license_verifications_total, license_verification_duration_seconds and
// hardware_id_lookups_total instruments, and structured logs in which license
// and hardware identifiers are masked. Payload bytes and signatures are never
// logged.
//
// HealthService reports whether the configured public key parses and
// whether the local hardware identity can be read.
package services
