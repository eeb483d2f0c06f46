package license

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"strings"
)

// PublicKey is the trusted Ed25519 key that licenses are checked against.
// It is immutable once constructed and safe to share between goroutines.
type PublicKey struct {
	key ed25519.PublicKey
}

// NewPublicKey wraps raw key bytes. The bytes are copied.
func NewPublicKey(raw []byte) (PublicKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return PublicKey{}, newError(KindKeyError,
			fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(raw)))
	}
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, raw)
	return PublicKey{key: key}, nil
}

// ParsePublicKey decodes a standard base64 encoded 32-byte public key.
func ParsePublicKey(b64 string) (PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return PublicKey{}, newError(KindKeyError, fmt.Errorf("invalid base64: %w", err))
	}
	return NewPublicKey(raw)
}

// Bytes returns a copy of the raw key.
func (k PublicKey) Bytes() []byte {
	out := make([]byte, len(k.key))
	copy(out, k.key)
	return out
}

// String returns the standard base64 encoding of the key.
func (k PublicKey) String() string {
	return base64.StdEncoding.EncodeToString(k.key)
}

// Valid reports whether the key has the expected size.
func (k PublicKey) Valid() bool {
	return len(k.key) == ed25519.PublicKeySize
}

// SignatureVerifier checks raw payload bytes against a detached signature.
type SignatureVerifier struct {
	key PublicKey
}

// NewSignatureVerifier returns a verifier bound to key.
func NewSignatureVerifier(key PublicKey) *SignatureVerifier {
	return &SignatureVerifier{key: key}
}

// Verify checks signature over payload exactly as given. A signature of the
// wrong length and a mismatching signature produce the same error.
func (v *SignatureVerifier) Verify(payload, signature []byte) error {
	if !v.key.Valid() {
		return newError(KindKeyError, fmt.Errorf("public key has %d bytes", len(v.key.key)))
	}
	if len(signature) != ed25519.SignatureSize {
		return &Error{Kind: KindInvalidSignature}
	}
	if !ed25519.Verify(v.key.key, payload, signature) {
		return &Error{Kind: KindInvalidSignature}
	}
	return nil
}
