package security

import (
	"fmt"
	"log/slog"

	"licensegate/internal/config"
	"licensegate/internal/license"
)

// NewHardwareIdentityProvider returns the identity source selected by cfg.
func NewHardwareIdentityProvider(cfg config.HardwareConfig, logger *slog.Logger) (license.HardwareIdentityProvider, error) {
	switch cfg.Source {
	case config.HardwareSourceMachineID, "":
		return NewMachineIDProvider(cfg.AppID), nil
	case config.HardwareSourceFingerprint:
		return NewFingerprintManager(cfg.FingerprintCache, logger), nil
	default:
		return nil, fmt.Errorf("unknown hardware source %q", cfg.Source)
	}
}

// MaskIdentifier hides the middle of an identifier for logging, keeping
// four characters at each end.
func MaskIdentifier(id string) string {
	r := []rune(id)
	if len(r) <= 8 {
		return "****"
	}
	return string(r[:4]) + "****" + string(r[len(r)-4:])
}
