package license

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_NamesAndCodes(t *testing.T) {
	tests := []struct {
		kind     Kind
		wantName string
		wantCode string
	}{
		{KindMalformedToken, "malformed_token", ErrCodeMalformedToken},
		{KindDecodeError, "decode_error", ErrCodeDecodeError},
		{KindInvalidSignature, "invalid_signature", ErrCodeInvalidSignature},
		{KindKeyError, "key_error", ErrCodeKeyError},
		{KindParseError, "parse_error", ErrCodeParseError},
		{KindExpired, "expired", ErrCodeExpired},
		{KindUnboundLicense, "unbound_license", ErrCodeUnboundLicense},
		{KindDeviceMismatch, "device_mismatch", ErrCodeDeviceMismatch},
		{KindHardwareIdentityUnavailable, "hardware_identity_unavailable", ErrCodeHardwareIdentityUnavailable},
	}

	assert.Len(t, Kinds(), len(tests))
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.kind.String())
			assert.Equal(t, tt.wantCode, tt.kind.Code())
		})
	}

	assert.Equal(t, "kind(99)", Kind(99).String())
	assert.Equal(t, "UNKNOWN", Kind(99).Code())
}

func TestError_Is(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("verify: %w", &Error{Kind: KindDeviceMismatch, Bound: "a", Local: "b", Err: cause})

	assert.ErrorIs(t, err, ErrDeviceMismatch)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrExpired)
	assert.Equal(t, KindDeviceMismatch, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(cause))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"segment", &Error{Kind: KindDecodeError, Segment: "signature"}, "license signature segment decoding failed"},
		{"field", &Error{Kind: KindParseError, Field: "product"}, `license payload field "product" is missing or invalid`},
		{"mismatch", &Error{Kind: KindDeviceMismatch, Bound: "A", Local: "B"}, `device mismatch: license bound to "A", local device is "B"`},
		{"cause", &Error{Kind: KindHardwareIdentityUnavailable, Err: errors.New("no id")}, "local hardware identity unavailable: no id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
