// Package cli implements licensectl, the operator tool for offline licenses.
//
// Commands:
//
//	verify   check a license against the trusted key and this device
//	hwid     print the identifier a license must be bound to
//	keygen   create an issuer key pair
//	issue    sign a license
//	inspect  decode a license without verifying it
//
// File access goes through an afero.Fs so commands run against an in-memory
// filesystem in tests.
package cli
