package services

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"licensegate/internal/license"
	"licensegate/pkg/contracts"
	"licensegate/pkg/contracts/domain"
)

// Health component names
const (
	ComponentPublicKey        = "public_key"
	ComponentHardwareIdentity = "hardware_identity"
)

// DefaultProbeTimeout bounds each health probe.
const DefaultProbeTimeout = 2 * time.Second

// HealthService provides health check functionality
type HealthService struct {
	publicKey    string
	hardware     license.HardwareIdentityProvider
	probeTimeout time.Duration
	startTime    time.Time
	logger       *slog.Logger
}

// NewHealthService creates a health service. publicKey is the configured
// base64 issuer key; hardware may be nil.
func NewHealthService(publicKey string, hardware license.HardwareIdentityProvider, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		publicKey:    publicKey,
		hardware:     hardware,
		probeTimeout: DefaultProbeTimeout,
		startTime:    time.Now(),
		logger:       logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck probes every component in parallel. The report is degraded
// when any component fails.
func (hs *HealthService) HealthCheck(ctx context.Context) domain.HealthReport {
	var keyHealth, hwHealth domain.ComponentHealth

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		keyHealth = hs.probePublicKey()
		return nil
	})
	g.Go(func() error {
		hwHealth = hs.probeHardware(gctx)
		return nil
	})
	_ = g.Wait()

	report := domain.HealthReport{
		Status:    domain.HealthStatusOK,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Uptime:    time.Since(hs.startTime).Round(time.Second).String(),
		Components: map[string]domain.ComponentHealth{
			ComponentPublicKey:        keyHealth,
			ComponentHardwareIdentity: hwHealth,
		},
	}
	for _, c := range report.Components {
		if c.Status != domain.HealthStatusOK {
			report.Status = domain.HealthStatusDegraded
		}
	}

	hs.logger.DebugContext(ctx, "health check completed", slog.String("status", report.Status))
	return report
}

// Version returns build and format information.
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) probePublicKey() domain.ComponentHealth {
	if _, err := license.ParsePublicKey(hs.publicKey); err != nil {
		return domain.ComponentHealth{Status: domain.HealthStatusDegraded, Message: err.Error()}
	}
	return domain.ComponentHealth{Status: domain.HealthStatusOK}
}

func (hs *HealthService) probeHardware(ctx context.Context) domain.ComponentHealth {
	if hs.hardware == nil {
		return domain.ComponentHealth{Status: domain.HealthStatusDegraded, Message: "no hardware identity provider configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, hs.probeTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := hs.hardware.HardwareID()
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return domain.ComponentHealth{Status: domain.HealthStatusDegraded, Message: err.Error()}
		}
		return domain.ComponentHealth{Status: domain.HealthStatusOK}
	case <-ctx.Done():
		return domain.ComponentHealth{Status: domain.HealthStatusDegraded, Message: "hardware identity probe timed out"}
	}
}
