package config

// Application constants
const (
	AppName = "licensegate"

	// EnvPrefix namespaces every environment variable, e.g. LICENSEGATE_SERVER_PORT.
	EnvPrefix = "LICENSEGATE"

	// DefaultPublicKey is the production issuer key compiled into release
	// builds. Override it with LICENSEGATE_LICENSE_PUBLIC_KEY for staging.
	DefaultPublicKey = "0OFf5j7nMnQk0vRrhviwpNu0DFzBK2eYGwdr5zRoOwY="

	// Hardware identity sources
	HardwareSourceMachineID   = "machine-id"
	HardwareSourceFingerprint = "fingerprint"

	// Trace exporters
	TraceExporterStdout = "stdout"
	TraceExporterNone   = "none"
)
