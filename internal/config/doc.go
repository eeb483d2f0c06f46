// Package config loads licensegate configuration.
//
// Values are layered, later sources winning:
//
//	1. Default()
//	2. licensegate.yaml or configs/licensegate.yaml
//	3. LICENSEGATE_* environment variables
//
// Environment variables follow the struct layout, for example:
//
//	LICENSEGATE_SERVER_PORT=8765
//	LICENSEGATE_LICENSE_PUBLIC_KEY=0OFf5j7nMnQk0vRrhviwpNu0DFzBK2eYGwdr5zRoOwY=
//	LICENSEGATE_HARDWARE_SOURCE=fingerprint
//	LICENSEGATE_TELEMETRY_TRACE_EXPORTER=stdout
//
// The server only binds loopback addresses unless security.allow_lan is set.
package config
