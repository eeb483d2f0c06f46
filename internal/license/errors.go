package license

import (
	"errors"
	"fmt"
)

// Kind classifies a verification failure. Every failure the verifier can
// produce maps to exactly one Kind.
type Kind int

const (
	KindMalformedToken Kind = iota + 1
	KindDecodeError
	KindInvalidSignature
	KindKeyError
	KindParseError
	KindExpired
	KindUnboundLicense
	KindDeviceMismatch
	KindHardwareIdentityUnavailable
)

// Error codes for verification failures. They are stable, locale-independent
// identifiers that callers map to their own user-facing text.
const (
	ErrCodeMalformedToken              = "MALFORMED_TOKEN"
	ErrCodeDecodeError                 = "DECODE_ERROR"
	ErrCodeInvalidSignature            = "INVALID_SIGNATURE"
	ErrCodeKeyError                    = "KEY_ERROR"
	ErrCodeParseError                  = "PARSE_ERROR"
	ErrCodeExpired                     = "LICENSE_EXPIRED"
	ErrCodeUnboundLicense              = "UNBOUND_LICENSE"
	ErrCodeDeviceMismatch              = "DEVICE_MISMATCH"
	ErrCodeHardwareIdentityUnavailable = "HARDWARE_IDENTITY_UNAVAILABLE"
)

var kindNames = map[Kind]string{
	KindMalformedToken:              "malformed_token",
	KindDecodeError:                 "decode_error",
	KindInvalidSignature:            "invalid_signature",
	KindKeyError:                    "key_error",
	KindParseError:                  "parse_error",
	KindExpired:                     "expired",
	KindUnboundLicense:              "unbound_license",
	KindDeviceMismatch:              "device_mismatch",
	KindHardwareIdentityUnavailable: "hardware_identity_unavailable",
}

var kindCodes = map[Kind]string{
	KindMalformedToken:              ErrCodeMalformedToken,
	KindDecodeError:                 ErrCodeDecodeError,
	KindInvalidSignature:            ErrCodeInvalidSignature,
	KindKeyError:                    ErrCodeKeyError,
	KindParseError:                  ErrCodeParseError,
	KindExpired:                     ErrCodeExpired,
	KindUnboundLicense:              ErrCodeUnboundLicense,
	KindDeviceMismatch:              ErrCodeDeviceMismatch,
	KindHardwareIdentityUnavailable: ErrCodeHardwareIdentityUnavailable,
}

// String returns the snake_case name of the kind, suitable for metric labels.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Code returns the stable error code of the kind.
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return "UNKNOWN"
}

// Kinds returns every defined kind in pipeline order.
func Kinds() []Kind {
	return []Kind{
		KindMalformedToken,
		KindDecodeError,
		KindInvalidSignature,
		KindKeyError,
		KindParseError,
		KindExpired,
		KindUnboundLicense,
		KindDeviceMismatch,
		KindHardwareIdentityUnavailable,
	}
}

// Error is the single error type returned by the verifier. The fields form a
// language-independent payload; Error() is only an English diagnostic.
type Error struct {
	Kind Kind

	// Field names the offending payload field for KindParseError. Empty when
	// the failure is not attributable to one field, such as non-UTF-8 bytes
	// or a payload that is not a JSON object.
	Field string

	// Segment is "payload" or "signature" for KindDecodeError.
	Segment string

	// Bound and Local carry both identifiers for KindDeviceMismatch.
	Bound string
	Local string

	// Err is the underlying cause, if any.
	Err error
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrMalformedToken              = &Error{Kind: KindMalformedToken}
	ErrDecodeError                 = &Error{Kind: KindDecodeError}
	ErrInvalidSignature            = &Error{Kind: KindInvalidSignature}
	ErrKeyError                    = &Error{Kind: KindKeyError}
	ErrParseError                  = &Error{Kind: KindParseError}
	ErrExpired                     = &Error{Kind: KindExpired}
	ErrUnboundLicense              = &Error{Kind: KindUnboundLicense}
	ErrDeviceMismatch              = &Error{Kind: KindDeviceMismatch}
	ErrHardwareIdentityUnavailable = &Error{Kind: KindHardwareIdentityUnavailable}
)

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindMalformedToken:
		msg = "malformed license token: expected exactly two '.'-separated segments"
	case KindDecodeError:
		msg = "license token decoding failed"
		if e.Segment != "" {
			msg = fmt.Sprintf("license %s segment decoding failed", e.Segment)
		}
	case KindInvalidSignature:
		msg = "license signature verification failed"
	case KindKeyError:
		msg = "trusted public key is malformed"
	case KindParseError:
		msg = "license payload parsing failed"
		if e.Field != "" {
			msg = fmt.Sprintf("license payload field %q is missing or invalid", e.Field)
		}
	case KindExpired:
		msg = "license expired"
	case KindUnboundLicense:
		msg = "license is not bound to a device"
	case KindDeviceMismatch:
		msg = fmt.Sprintf("device mismatch: license bound to %q, local device is %q", e.Bound, e.Local)
	case KindHardwareIdentityUnavailable:
		msg = "local hardware identity unavailable"
	default:
		msg = "license verification failed"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or 0 when err is not a verification error.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return 0
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}
