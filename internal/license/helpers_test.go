package license

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

type testKeys struct {
	pub  PublicKey
	priv ed25519.PrivateKey
}

func newTestKeys(t *testing.T) testKeys {
	t.Helper()
	pub, priv, err := GenerateKeyPair(nil)
	require.NoError(t, err)
	return testKeys{pub: pub, priv: priv}
}

func (k testKeys) sign(t *testing.T, payload string) string {
	t.Helper()
	s, err := Sign(k.priv, []byte(payload))
	require.NoError(t, err)
	return s
}

func fixedClock(now time.Time) Clock {
	return ClockFunc(func() time.Time { return now })
}

func staticHWID(id string) HardwareIdentityProvider {
	return HardwareIDFunc(func() (string, error) { return id, nil })
}

var errNoHardware = errors.New("machine id not readable")

func failingHWID() HardwareIdentityProvider {
	return HardwareIDFunc(func() (string, error) { return "", errNoHardware })
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var le *Error
	require.True(t, errors.As(err, &le), "expected *license.Error, got %T: %v", err, err)
	require.Equal(t, kind, le.Kind, "unexpected kind: %v", err)
	return le
}
