package license

import "time"

// Result describes an accepted license.
type Result struct {
	LicenseID string
	Product   string
	ExpiresAt time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock sets the time source used for the expiry check.
func WithClock(c Clock) Option {
	return func(v *Verifier) {
		if c != nil {
			v.clock = c
		}
	}
}

// WithHardwareIdentity sets the provider of the local device identifier.
func WithHardwareIdentity(p HardwareIdentityProvider) Option {
	return func(v *Verifier) {
		v.hwid = p
	}
}

// Verifier checks license strings offline against a single trusted key.
// A Verifier holds no per-call state and is safe for concurrent use.
type Verifier struct {
	signatures *SignatureVerifier
	clock      Clock
	hwid       HardwareIdentityProvider
}

// NewVerifier returns a verifier trusting key. Without options it reads the
// system clock and has no hardware identity provider, so bound licenses fail
// with KindHardwareIdentityUnavailable.
func NewVerifier(key PublicKey, opts ...Option) *Verifier {
	v := &Verifier{
		signatures: NewSignatureVerifier(key),
		clock:      SystemClock{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify runs the full pipeline on license and stops at the first failure:
// decode, signature, payload, expiry, device binding. Nothing taken from the
// payload is looked at before the signature over its raw bytes is accepted.
func (v *Verifier) Verify(license string) (*Result, error) {
	tok, err := DecodeToken(license)
	if err != nil {
		return nil, err
	}

	if err := v.signatures.Verify(tok.PayloadBytes, tok.SignatureBytes); err != nil {
		return nil, err
	}

	p, err := ParsePayload(tok.PayloadBytes)
	if err != nil {
		return nil, err
	}

	if err := CheckExpiry(p.ExpiresAt, v.clock.Now()); err != nil {
		return nil, err
	}

	if err := CheckBinding(p.BoundHwid, v.hwid); err != nil {
		return nil, err
	}

	return &Result{
		LicenseID: p.LicenseID,
		Product:   p.Product,
		ExpiresAt: p.ExpiresAt,
	}, nil
}
