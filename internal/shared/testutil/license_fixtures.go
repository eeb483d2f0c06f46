package testutil

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"licensegate/internal/license"
)

// FixtureHardwareID is the device identifier bound into fixture licenses.
const FixtureHardwareID = "FIXTURE-HWID-0001"

// LicenseTestFixtures issues signed licenses with a throwaway key pair.
type LicenseTestFixtures struct {
	t          testing.TB
	PublicKey  license.PublicKey
	PrivateKey ed25519.PrivateKey
	Now        time.Time
}

// NewLicenseTestFixtures creates fixtures anchored at now.
func NewLicenseTestFixtures(t testing.TB, now time.Time) *LicenseTestFixtures {
	t.Helper()
	pub, priv, err := license.GenerateKeyPair(nil)
	require.NoError(t, err)
	return &LicenseTestFixtures{t: t, PublicKey: pub, PrivateKey: priv, Now: now.UTC()}
}

// Payload returns a bound payload that expires in thirty days.
func (f *LicenseTestFixtures) Payload() *license.Payload {
	hwid := FixtureHardwareID
	return &license.Payload{
		LicenseID: "LIC-0001",
		Product:   "pro",
		ExpiresAt: f.Now.Add(30 * 24 * time.Hour),
		BoundHwid: &hwid,
	}
}

// Issue signs p and returns the license string.
func (f *LicenseTestFixtures) Issue(p *license.Payload) string {
	f.t.Helper()
	token, err := license.Issue(f.PrivateKey, p)
	require.NoError(f.t, err)
	return token
}

// SignRaw signs payload bytes as given.
func (f *LicenseTestFixtures) SignRaw(payload string) string {
	f.t.Helper()
	token, err := license.Sign(f.PrivateKey, []byte(payload))
	require.NoError(f.t, err)
	return token
}

// ValidToken is bound to FixtureHardwareID and not expired.
func (f *LicenseTestFixtures) ValidToken() string {
	return f.Issue(f.Payload())
}

// ExpiredToken expired one hour before Now.
func (f *LicenseTestFixtures) ExpiredToken() string {
	p := f.Payload()
	p.ExpiresAt = f.Now.Add(-time.Hour)
	return f.Issue(p)
}

// UnboundToken carries no device binding.
func (f *LicenseTestFixtures) UnboundToken() string {
	p := f.Payload()
	p.BoundHwid = nil
	return f.Issue(p)
}

// MismatchedToken is bound to another device.
func (f *LicenseTestFixtures) MismatchedToken() string {
	p := f.Payload()
	other := "OTHER-DEVICE"
	p.BoundHwid = &other
	return f.Issue(p)
}

// TamperedToken keeps the signature of ValidToken but alters its payload.
func (f *LicenseTestFixtures) TamperedToken() string {
	p := f.Payload()
	signed, err := license.MarshalPayload(p)
	require.NoError(f.t, err)

	p.Product = "enterprise"
	altered, err := license.MarshalPayload(p)
	require.NoError(f.t, err)

	sig := ed25519.Sign(f.PrivateKey, signed)
	return license.EncodeToken(altered, sig)
}

// Clock returns a clock frozen at Now.
func (f *LicenseTestFixtures) Clock() license.Clock {
	now := f.Now
	return license.ClockFunc(func() time.Time { return now })
}

// HardwareID returns a provider reporting id.
func HardwareID(id string) license.HardwareIdentityProvider {
	return license.HardwareIDFunc(func() (string, error) { return id, nil })
}
