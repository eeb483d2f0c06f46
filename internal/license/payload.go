package license

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Payload field names as they appear on the wire.
const (
	FieldLicenseID      = "licenseId"
	FieldProduct        = "product"
	FieldExpiresAt      = "expiresAt"
	FieldMaxActivations = "maxActivations"
	FieldNonce          = "nonce"
	FieldBoundHwid      = "boundHwid"
	FieldIssuedAt       = "issuedAt"
)

// Payload is the structured content of a license. It is only ever built from
// bytes whose signature has already been accepted.
type Payload struct {
	LicenseID string    `json:"licenseId" validate:"required"`
	Product   string    `json:"product"`
	ExpiresAt time.Time `json:"expiresAt"`

	// MaxActivations and Nonce are accepted but not enforced.
	MaxActivations *uint32 `json:"maxActivations,omitempty"`
	Nonce          *string `json:"nonce,omitempty"`

	BoundHwid *string `json:"boundHwid,omitempty"`

	// IssuedAt is informational and kept exactly as issued.
	IssuedAt *string `json:"issuedAt,omitempty"`
}

// wirePayload mirrors Payload with every field optional so that absence and
// null can be told apart from present values.
type wirePayload struct {
	LicenseID      *string `json:"licenseId"`
	Product        *string `json:"product"`
	ExpiresAt      *string `json:"expiresAt"`
	MaxActivations *uint32 `json:"maxActivations"`
	Nonce          *string `json:"nonce"`
	BoundHwid      *string `json:"boundHwid"`
	IssuedAt       *string `json:"issuedAt"`
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New()

	// Report wire names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// ErrPayloadEncoding is the cause attached to a KindParseError when the
// payload is not UTF-8 text.
var ErrPayloadEncoding = errors.New("payload is not valid UTF-8")

// errDuplicateField is the cause attached when a known field appears twice.
var errDuplicateField = errors.New("duplicate field")

// ParsePayload decodes trusted payload bytes. Missing, mistyped or repeated
// fields yield a KindParseError naming the field. Keys are matched exactly;
// unknown keys are ignored.
func ParsePayload(b []byte) (*Payload, error) {
	if !utf8.Valid(b) {
		return nil, newError(KindParseError, ErrPayloadEncoding)
	}

	fields, err := decodeObject(b)
	if err != nil {
		return nil, err
	}

	var w wirePayload
	targets := []struct {
		name string
		dst  any
	}{
		{FieldLicenseID, &w.LicenseID},
		{FieldProduct, &w.Product},
		{FieldExpiresAt, &w.ExpiresAt},
		{FieldMaxActivations, &w.MaxActivations},
		{FieldNonce, &w.Nonce},
		{FieldBoundHwid, &w.BoundHwid},
		{FieldIssuedAt, &w.IssuedAt},
	}
	for _, t := range targets {
		raw, ok := fields[t.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, t.dst); err != nil {
			return nil, &Error{Kind: KindParseError, Field: t.name, Err: err}
		}
	}

	switch {
	case w.LicenseID == nil:
		return nil, missingField(FieldLicenseID)
	case w.Product == nil:
		return nil, missingField(FieldProduct)
	case w.ExpiresAt == nil:
		return nil, missingField(FieldExpiresAt)
	}

	expiresAt, err := parseTimestamp(*w.ExpiresAt)
	if err != nil {
		return nil, &Error{Kind: KindParseError, Field: FieldExpiresAt, Err: err}
	}

	p := &Payload{
		LicenseID:      *w.LicenseID,
		Product:        *w.Product,
		ExpiresAt:      expiresAt,
		MaxActivations: w.MaxActivations,
		Nonce:          w.Nonce,
		BoundHwid:      w.BoundHwid,
		IssuedAt:       w.IssuedAt,
	}

	if err := payloadValidator.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &Error{
				Kind:  KindParseError,
				Field: verrs[0].Field(),
				Err:   fmt.Errorf("failed %q constraint", verrs[0].Tag()),
			}
		}
		return nil, newError(KindParseError, err)
	}

	return p, nil
}

// decodeObject splits a JSON object into its members. A known field that
// appears more than once is rejected; repeated unknown keys are ignored.
func decodeObject(b []byte) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return nil, newError(KindParseError, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, newError(KindParseError, errors.New("payload is not a JSON object"))
	}

	fields := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, newError(KindParseError, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, newError(KindParseError, fmt.Errorf("unexpected token %v", tok))
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, newError(KindParseError, err)
		}

		if _, seen := fields[key]; seen && knownField(key) {
			return nil, &Error{Kind: KindParseError, Field: key, Err: errDuplicateField}
		}
		fields[key] = raw
	}

	// Closing brace, then nothing but whitespace.
	if _, err := dec.Token(); err != nil {
		return nil, newError(KindParseError, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after payload object")
		}
		return nil, newError(KindParseError, err)
	}

	return fields, nil
}

func knownField(name string) bool {
	switch name {
	case FieldLicenseID, FieldProduct, FieldExpiresAt, FieldMaxActivations,
		FieldNonce, FieldBoundHwid, FieldIssuedAt:
		return true
	}
	return false
}

func missingField(name string) *Error {
	return &Error{Kind: KindParseError, Field: name, Err: errors.New("required field is missing")}
}

// parseTimestamp accepts RFC 3339 timestamps, with or without fractional
// seconds, and normalizes them to UTC. A space or lowercase t may separate
// the date from the time.
func parseTimestamp(s string) (time.Time, error) {
	if len(s) > 10 && (s[10] == ' ' || s[10] == 't') {
		s = s[:10] + "T" + s[11:]
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// MarshalPayload renders a payload in its wire form. Issuers sign the returned
// bytes as-is.
func MarshalPayload(p *Payload) ([]byte, error) {
	w := wirePayload{
		LicenseID:      &p.LicenseID,
		Product:        &p.Product,
		MaxActivations: p.MaxActivations,
		Nonce:          p.Nonce,
		BoundHwid:      p.BoundHwid,
		IssuedAt:       p.IssuedAt,
	}
	exp := p.ExpiresAt.UTC().Format(time.RFC3339)
	w.ExpiresAt = &exp

	type out struct {
		LicenseID      *string `json:"licenseId"`
		Product        *string `json:"product"`
		ExpiresAt      *string `json:"expiresAt"`
		MaxActivations *uint32 `json:"maxActivations,omitempty"`
		Nonce          *string `json:"nonce,omitempty"`
		BoundHwid      *string `json:"boundHwid,omitempty"`
		IssuedAt       *string `json:"issuedAt,omitempty"`
	}
	return json.Marshal(out(w))
}
