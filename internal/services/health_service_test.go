package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"licensegate/internal/license"
	"licensegate/internal/shared/testutil"
	"licensegate/pkg/contracts"
	"licensegate/pkg/contracts/domain"
)

func TestHealthService_HealthCheck(t *testing.T) {
	fixtures := testutil.NewLicenseTestFixtures(t, testNow)

	blocking := license.HardwareIDFunc(func() (string, error) {
		time.Sleep(time.Second)
		return "late", nil
	})

	tests := []struct {
		name       string
		publicKey  string
		hardware   license.HardwareIdentityProvider
		timeout    time.Duration
		wantStatus string
		wantKey    string
		wantHW     string
	}{
		{
			name:       "all healthy",
			publicKey:  fixtures.PublicKey.String(),
			hardware:   testutil.HardwareID("HW-1"),
			wantStatus: domain.HealthStatusOK,
			wantKey:    domain.HealthStatusOK,
			wantHW:     domain.HealthStatusOK,
		},
		{
			name:       "bad public key",
			publicKey:  "not-a-key",
			hardware:   testutil.HardwareID("HW-1"),
			wantStatus: domain.HealthStatusDegraded,
			wantKey:    domain.HealthStatusDegraded,
			wantHW:     domain.HealthStatusOK,
		},
		{
			name:       "hardware failure",
			publicKey:  fixtures.PublicKey.String(),
			hardware:   failingHardware(),
			wantStatus: domain.HealthStatusDegraded,
			wantKey:    domain.HealthStatusOK,
			wantHW:     domain.HealthStatusDegraded,
		},
		{
			name:       "no hardware provider",
			publicKey:  fixtures.PublicKey.String(),
			wantStatus: domain.HealthStatusDegraded,
			wantKey:    domain.HealthStatusOK,
			wantHW:     domain.HealthStatusDegraded,
		},
		{
			name:       "hardware probe timeout",
			publicKey:  fixtures.PublicKey.String(),
			hardware:   blocking,
			timeout:    20 * time.Millisecond,
			wantStatus: domain.HealthStatusDegraded,
			wantKey:    domain.HealthStatusOK,
			wantHW:     domain.HealthStatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService(tt.publicKey, tt.hardware, logger)
			if tt.timeout > 0 {
				hs.probeTimeout = tt.timeout
			}

			report := hs.HealthCheck(context.Background())

			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Equal(t, contracts.Version, report.Version)
			assert.Equal(t, tt.wantKey, report.Components[ComponentPublicKey].Status)
			assert.Equal(t, tt.wantHW, report.Components[ComponentHardwareIdentity].Status)
			if tt.wantHW != domain.HealthStatusOK {
				assert.NotEmpty(t, report.Components[ComponentHardwareIdentity].Message)
			}
		})
	}
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService("", nil, nil)
	info := hs.Version()

	assert.Equal(t, contracts.Version, info.Version)
	assert.Equal(t, contracts.TokenFormatVersion, info.TokenFormat)
	assert.NotEmpty(t, info.GoVersion)
}
