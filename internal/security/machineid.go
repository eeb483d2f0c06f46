package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/denisbrodbeck/machineid"
)

// ErrEmptyHardwareID is returned when the OS reports an empty machine id.
var ErrEmptyHardwareID = errors.New("machine id is empty")

// MachineIDProvider reads the OS machine id: /etc/machine-id (or the D-Bus
// id) on Linux, IOPlatformUUID on macOS, MachineGuid on Windows.
type MachineIDProvider struct {
	appID string

	id          func() (string, error)
	protectedID func(appID string) (string, error)
}

// NewMachineIDProvider returns a provider for the raw machine id. A non-empty
// appID makes it return HMAC-SHA256(machineID, appID) in hex instead.
func NewMachineIDProvider(appID string) *MachineIDProvider {
	return &MachineIDProvider{
		appID:       appID,
		id:          machineid.ID,
		protectedID: machineid.ProtectedID,
	}
}

// HardwareID implements license.HardwareIdentityProvider.
func (p *MachineIDProvider) HardwareID() (string, error) {
	var (
		id  string
		err error
	)
	if p.appID != "" {
		id, err = p.protectedID(p.appID)
	} else {
		id, err = p.id()
	}
	if err != nil {
		return "", fmt.Errorf("read machine id: %w", err)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyHardwareID
	}
	return id, nil
}
