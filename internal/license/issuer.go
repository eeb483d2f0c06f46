package license

import (
	"crypto/ed25519"
	"encoding/pem"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/ssh"
)

// SigningKeyComment is stored in the OpenSSH key file written by
// MarshalSigningKey.
const SigningKeyComment = "licensegate issuer"

// ErrNotEd25519 is returned when a signing key file holds a key of another type.
var ErrNotEd25519 = errors.New("signing key is not an ed25519 key")

// GenerateKeyPair creates an issuer key pair. A nil rand uses crypto/rand.
func GenerateKeyPair(rand io.Reader) (PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand)
	if err != nil {
		return PublicKey{}, nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	key, err := NewPublicKey(pub)
	if err != nil {
		return PublicKey{}, nil, err
	}
	return key, priv, nil
}

// PublicKeyOf returns the verification key matching priv.
func PublicKeyOf(priv ed25519.PrivateKey) (PublicKey, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return PublicKey{}, newError(KindKeyError,
			fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv)))
	}
	return NewPublicKey(priv.Public().(ed25519.PublicKey))
}

// Fingerprint returns the OpenSSH SHA256 fingerprint of the key, as printed
// by ssh-keygen -l.
func (k PublicKey) Fingerprint() (string, error) {
	sshPub, err := ssh.NewPublicKey(ed25519.PublicKey(k.Bytes()))
	if err != nil {
		return "", newError(KindKeyError, err)
	}
	return ssh.FingerprintSHA256(sshPub), nil
}

// Sign signs payload exactly as given and returns the license string. The
// payload is not parsed or re-serialized.
func Sign(priv ed25519.PrivateKey, payload []byte) (string, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return "", newError(KindKeyError,
			fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv)))
	}
	return EncodeToken(payload, ed25519.Sign(priv, payload)), nil
}

// Issue marshals p and signs the result.
func Issue(priv ed25519.PrivateKey, p *Payload) (string, error) {
	b, err := MarshalPayload(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return Sign(priv, b)
}

// MarshalSigningKey encodes priv as an OpenSSH private key in PEM form. A
// non-empty passphrase encrypts the key.
func MarshalSigningKey(priv ed25519.PrivateKey, passphrase []byte) ([]byte, error) {
	var (
		block *pem.Block
		err   error
	)
	if len(passphrase) > 0 {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(priv, SigningKeyComment, passphrase)
	} else {
		block, err = ssh.MarshalPrivateKey(priv, SigningKeyComment)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal signing key: %w", err)
	}
	return pem.EncodeToMemory(block), nil
}

// ParseSigningKey decodes a key written by MarshalSigningKey.
func ParseSigningKey(data, passphrase []byte) (ed25519.PrivateKey, error) {
	var (
		raw any
		err error
	)
	if len(passphrase) > 0 {
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(data, passphrase)
	} else {
		raw, err = ssh.ParseRawPrivateKey(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	switch k := raw.(type) {
	case ed25519.PrivateKey:
		return k, nil
	case *ed25519.PrivateKey:
		return *k, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrNotEd25519, raw)
	}
}
