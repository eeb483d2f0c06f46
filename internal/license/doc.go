// Package license verifies signed license strings offline.
//
// A license string is two unpadded base64url segments joined by a dot: the
// JSON payload and a detached Ed25519 signature over the exact payload bytes.
//
//	key, _ := license.ParsePublicKey(cfg.License.PublicKey)
//	v := license.NewVerifier(key,
//		license.WithHardwareIdentity(provider),
//	)
//	res, err := v.Verify(s)
//
// Verification stops at the first failure and every failure is an *Error
// whose Kind identifies the stage that rejected the license. Licenses that
// are not bound to a device are always rejected.
//
// The package also carries the issuer side (key generation, signing and key
// file encoding) used by licensectl and by tests.
package license
