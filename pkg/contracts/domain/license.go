// Package domain contains the wire contracts of the licensegate local API.
// These types are shared by the HTTP transport, the CLI and their tests.
package domain

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// VerifyLicenseRequest is the body of POST /api/license/verify. The license
// length is bounded by the verification service, not by validation.
type VerifyLicenseRequest struct {
	License string `json:"license" validate:"required"`
}

// Bind implements render.Binder. Surrounding whitespace from copy and paste
// is removed; whitespace inside the token is left for the decoder to reject.
func (r *VerifyLicenseRequest) Bind(_ *http.Request) error {
	if r == nil {
		return errors.New("missing request body")
	}
	r.License = strings.TrimSpace(r.License)
	return nil
}

// LicenseVerification is returned for a license that passed every check.
type LicenseVerification struct {
	Valid     bool      `json:"valid"`
	LicenseID string    `json:"license_id"`
	Product   string    `json:"product"`
	ExpiresAt time.Time `json:"expires_at"`

	// ExpiresIn is a human readable remaining validity, e.g. "3 weeks from now".
	ExpiresIn string `json:"expires_in"`
}

// HardwareIdentity is the identifier a license must be bound to on this device.
type HardwareIdentity struct {
	HardwareID string `json:"hardware_id"`
	Source     string `json:"source"`
}
