package license

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePublicKey(t *testing.T) {
	keys := newTestKeys(t)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", keys.pub.String(), false},
		{"surrounding whitespace", "  " + keys.pub.String() + "\n", false},
		{"production key", "0OFf5j7nMnQk0vRrhviwpNu0DFzBK2eYGwdr5zRoOwY=", false},
		{"not base64", "not*base64", true},
		{"too short", base64.StdEncoding.EncodeToString(make([]byte, 31)), true},
		{"too long", base64.StdEncoding.EncodeToString(make([]byte, 33)), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := ParsePublicKey(tt.input)
			if tt.wantErr {
				requireKind(t, err, KindKeyError)
				assert.False(t, key.Valid())
				return
			}
			require.NoError(t, err)
			assert.True(t, key.Valid())
			assert.Len(t, key.Bytes(), ed25519.PublicKeySize)
		})
	}
}

func TestNewPublicKey_CopiesInput(t *testing.T) {
	raw := make([]byte, ed25519.PublicKeySize)
	raw[0] = 7
	key, err := NewPublicKey(raw)
	require.NoError(t, err)

	raw[0] = 9
	assert.Equal(t, byte(7), key.Bytes()[0])
}

func TestSignatureVerifier_Verify(t *testing.T) {
	keys := newTestKeys(t)
	other := newTestKeys(t)
	payload := []byte(`{"licenseId":"L1"}`)
	sig := ed25519.Sign(keys.priv, payload)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, NewSignatureVerifier(keys.pub).Verify(payload, sig))
	})

	t.Run("wrong key", func(t *testing.T) {
		err := NewSignatureVerifier(other.pub).Verify(payload, sig)
		requireKind(t, err, KindInvalidSignature)
	})

	t.Run("short signature", func(t *testing.T) {
		err := NewSignatureVerifier(keys.pub).Verify(payload, sig[:63])
		le := requireKind(t, err, KindInvalidSignature)
		assert.Nil(t, le.Err)
	})

	t.Run("long signature", func(t *testing.T) {
		err := NewSignatureVerifier(keys.pub).Verify(payload, append(append([]byte{}, sig...), 0))
		requireKind(t, err, KindInvalidSignature)
	})

	t.Run("zero key", func(t *testing.T) {
		err := NewSignatureVerifier(PublicKey{}).Verify(payload, sig)
		requireKind(t, err, KindKeyError)
	})
}

func TestSignatureVerifier_BitFlips(t *testing.T) {
	keys := newTestKeys(t)
	v := NewSignatureVerifier(keys.pub)
	payload := []byte(`{"licenseId":"L1","product":"P","expiresAt":"2099-01-01T00:00:00Z","boundHwid":"HW-1"}`)
	sig := ed25519.Sign(keys.priv, payload)
	require.NoError(t, v.Verify(payload, sig))

	flip := func(b []byte, bit int) []byte {
		out := append([]byte{}, b...)
		out[bit/8] ^= 1 << (bit % 8)
		return out
	}

	for bit := 0; bit < len(payload)*8; bit++ {
		err := v.Verify(flip(payload, bit), sig)
		if !assert.ErrorIs(t, err, ErrInvalidSignature, "payload bit %d", bit) {
			return
		}
	}
	for bit := 0; bit < len(sig)*8; bit++ {
		err := v.Verify(payload, flip(sig, bit))
		if !assert.ErrorIs(t, err, ErrInvalidSignature, "signature bit %d", bit) {
			return
		}
	}
}

func TestSignatureVerifier_NoReencoding(t *testing.T) {
	keys := newTestKeys(t)
	v := NewSignatureVerifier(keys.pub)

	// Semantically equal JSON with different bytes must not verify.
	signed := []byte(`{"licenseId":"L1","product":"P"}`)
	sig := ed25519.Sign(keys.priv, signed)
	variant := []byte(strings.Replace(string(signed), `","`, `", "`, 1))

	require.NoError(t, v.Verify(signed, sig))
	assert.ErrorIs(t, v.Verify(variant, sig), ErrInvalidSignature)
}
