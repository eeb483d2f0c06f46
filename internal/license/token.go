package license

import (
	"encoding/base64"
	"errors"
	"strings"
)

// TokenSeparator joins the payload and signature segments of a license token.
const TokenSeparator = "."

// Token is the decoded form of a license string. PayloadBytes is exactly the
// octet sequence that was signed and must never be re-encoded before the
// signature check.
type Token struct {
	PayloadBytes   []byte
	SignatureBytes []byte
}

var errLineBreak = errors.New("segment contains a line break")

// DecodeToken splits a license string into its two segments and base64url
// decodes each of them. It does not look at the payload content.
func DecodeToken(s string) (*Token, error) {
	parts := strings.Split(s, TokenSeparator)
	if len(parts) != 2 {
		return nil, &Error{Kind: KindMalformedToken}
	}

	payload, err := decodeSegment(parts[0])
	if err != nil {
		return nil, &Error{Kind: KindDecodeError, Segment: "payload", Err: err}
	}

	sig, err := decodeSegment(parts[1])
	if err != nil {
		return nil, &Error{Kind: KindDecodeError, Segment: "signature", Err: err}
	}

	return &Token{PayloadBytes: payload, SignatureBytes: sig}, nil
}

// decodeSegment translates the URL-safe alphabet to the standard one, restores
// the '=' padding and decodes strictly. The standard decoder skips CR and LF,
// so those are rejected up front.
func decodeSegment(seg string) ([]byte, error) {
	if strings.ContainsAny(seg, "\r\n") {
		return nil, errLineBreak
	}

	std := strings.NewReplacer("-", "+", "_", "/").Replace(seg)
	if rem := len(std) % 4; rem != 0 {
		std += strings.Repeat("=", 4-rem)
	}

	return base64.StdEncoding.Strict().DecodeString(std)
}

// EncodeSegment encodes raw bytes as unpadded base64url, the inverse of the
// segment decoding done by DecodeToken.
func EncodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// EncodeToken joins an already-signed payload and its signature into a
// license string.
func EncodeToken(payload, signature []byte) string {
	return EncodeSegment(payload) + TokenSeparator + EncodeSegment(signature)
}
