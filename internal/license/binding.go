package license

// HardwareIdentityProvider returns the stable identifier of the local device.
type HardwareIdentityProvider interface {
	HardwareID() (string, error)
}

// HardwareIDFunc adapts a function to HardwareIdentityProvider.
type HardwareIDFunc func() (string, error)

// HardwareID implements HardwareIdentityProvider.
func (f HardwareIDFunc) HardwareID() (string, error) { return f() }

// CheckBinding enforces the device binding policy:
//
//  1. a license without a bound identifier is rejected outright;
//  2. a bound identifier must equal the local one byte for byte.
//
// The provider is only consulted for bound licenses. Nothing is recorded.
func CheckBinding(bound *string, provider HardwareIdentityProvider) error {
	if bound == nil {
		return &Error{Kind: KindUnboundLicense}
	}
	if provider == nil {
		return &Error{Kind: KindHardwareIdentityUnavailable}
	}

	local, err := provider.HardwareID()
	if err != nil {
		return newError(KindHardwareIdentityUnavailable, err)
	}

	if *bound != local {
		return &Error{Kind: KindDeviceMismatch, Bound: *bound, Local: local}
	}
	return nil
}
