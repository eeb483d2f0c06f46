package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// DeviceFingerprint represents device identification information
type DeviceFingerprint struct {
	Fingerprint string    `json:"fingerprint"`
	Hostname    string    `json:"hostname"`
	MACAddress  string    `json:"mac_address"`
	CPUID       string    `json:"cpu_id"`
	OS          string    `json:"os"`
	Platform    string    `json:"platform"`
	GeneratedAt time.Time `json:"generated_at"`
}

// FingerprintManager derives a device identifier from MAC address, hostname
// and CPU information. Results are cached for cacheDuration.
type FingerprintManager struct {
	cache         *DeviceFingerprint
	cacheMutex    sync.RWMutex
	cacheExpiry   time.Time
	cacheDuration time.Duration
	logger        *slog.Logger

	// Hardware readers, replaced in tests.
	macAddress func() (string, error)
	hostname   func() (string, error)
	cpuID      func() (string, error)
	now        func() time.Time
}

// NewFingerprintManager creates a fingerprint manager. A non-positive
// cacheDuration disables caching.
func NewFingerprintManager(cacheDuration time.Duration, logger *slog.Logger) *FingerprintManager {
	if logger == nil {
		logger = slog.Default()
	}
	fm := &FingerprintManager{
		cacheDuration: cacheDuration,
		logger:        logger.With(slog.String("component", "fingerprint")),
		now:           time.Now,
	}
	fm.macAddress = fm.GetMACAddress
	fm.hostname = fm.GetHostname
	fm.cpuID = fm.GetCPUID
	return fm
}

// HardwareID returns the fingerprint hash. It implements
// license.HardwareIdentityProvider.
func (fm *FingerprintManager) HardwareID() (string, error) {
	fp, err := fm.GenerateFingerprint()
	if err != nil {
		return "", err
	}
	return fp.Fingerprint, nil
}

// GetMACAddress retrieves the primary network interface MAC address
func (fm *FingerprintManager) GetMACAddress() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to get network interfaces: %w", err)
	}

	// Prefer up, non-loopback interfaces
	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if mac := iface.HardwareAddr.String(); validMAC(mac) {
			return mac, nil
		}
	}

	for _, iface := range interfaces {
		if mac := iface.HardwareAddr.String(); validMAC(mac) {
			fm.logger.Warn("Using fallback MAC address", slog.String("interface", iface.Name))
			return mac, nil
		}
	}

	return "", errors.New("no valid MAC address found")
}

func validMAC(mac string) bool {
	return mac != "" && mac != "00:00:00:00:00:00"
}

// GetHostname retrieves the machine hostname
func (fm *FingerprintManager) GetHostname() (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("failed to get hostname: %w", err)
	}

	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return "", errors.New("hostname is empty")
	}

	return hostname, nil
}

// GetCPUID retrieves CPU identification information (OS-specific)
func (fm *FingerprintManager) GetCPUID() (string, error) {
	var raw string
	switch runtime.GOOS {
	case "windows":
		raw = os.Getenv("PROCESSOR_IDENTIFIER")
		if raw == "" {
			raw = fmt.Sprintf("windows-%s-%s", runtime.GOARCH, os.Getenv("PROCESSOR_ARCHITECTURE"))
		}
	case "linux":
		raw = linuxCPUInfo()
		if raw == "" {
			raw = "linux-" + runtime.GOARCH
		}
	case "darwin":
		raw = "darwin-" + runtime.GOARCH
		if procType := os.Getenv("HOSTTYPE"); procType != "" {
			raw += "-" + procType
		}
	default:
		raw = runtime.GOOS + "-" + runtime.GOARCH
	}

	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:8]), nil
}

func linuxCPUInfo() string {
	data, err := os.ReadFile("/proc/cpuinfo")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "model name") || strings.HasPrefix(line, "cpu family") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// GenerateFingerprint creates a device fingerprint by combining hardware
// factors. Every factor is required; a failed read is returned as an error
// rather than hashed.
func (fm *FingerprintManager) GenerateFingerprint() (*DeviceFingerprint, error) {
	fm.cacheMutex.RLock()
	if fm.cache != nil && fm.now().Before(fm.cacheExpiry) {
		cached := *fm.cache
		fm.cacheMutex.RUnlock()
		return &cached, nil
	}
	fm.cacheMutex.RUnlock()

	start := fm.now()

	hostname, err := fm.hostname()
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	macAddr, err := fm.macAddress()
	if err != nil {
		fm.logger.Warn("Failed to get MAC address", slog.String("error", err.Error()))
		return nil, fmt.Errorf("fingerprint: mac address: %w", err)
	}

	cpuID, err := fm.cpuID()
	if err != nil {
		fm.logger.Warn("Failed to get CPU ID", slog.String("error", err.Error()))
		return nil, fmt.Errorf("fingerprint: cpu id: %w", err)
	}

	factors := []string{
		macAddr,
		hostname,
		cpuID,
		runtime.GOOS,
		runtime.GOARCH,
	}
	hash := sha256.Sum256([]byte(strings.Join(factors, "|")))

	fp := &DeviceFingerprint{
		Fingerprint: hex.EncodeToString(hash[:]),
		Hostname:    hostname,
		MACAddress:  macAddr,
		CPUID:       cpuID,
		OS:          runtime.GOOS,
		Platform:    runtime.GOARCH,
		GeneratedAt: start,
	}

	if fm.cacheDuration > 0 {
		fm.cacheMutex.Lock()
		fm.cache = fp
		fm.cacheExpiry = fm.now().Add(fm.cacheDuration)
		fm.cacheMutex.Unlock()
	}

	fm.logger.Debug("Device fingerprint generated",
		slog.String("fingerprint", MaskIdentifier(fp.Fingerprint)),
		slog.Duration("generation_time", fm.now().Sub(start)),
	)

	out := *fp
	return &out, nil
}

// GetFingerprintComponents returns individual components for debugging
func (fm *FingerprintManager) GetFingerprintComponents() map[string]string {
	macAddr, _ := fm.macAddress()
	hostname, _ := fm.hostname()
	cpuID, _ := fm.cpuID()

	return map[string]string{
		"mac_address": macAddr,
		"hostname":    hostname,
		"cpu_id":      cpuID,
		"os":          runtime.GOOS,
		"platform":    runtime.GOARCH,
	}
}

// ClearCache clears the cached fingerprint
func (fm *FingerprintManager) ClearCache() {
	fm.cacheMutex.Lock()
	defer fm.cacheMutex.Unlock()

	fm.cache = nil
	fm.cacheExpiry = time.Time{}
}
