package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"licensegate/pkg/contracts"
	"licensegate/pkg/contracts/domain"
)

// MockLicenseService implements services.LicenseService for testing
type MockLicenseService struct {
	mock.Mock
}

func (m *MockLicenseService) Verify(ctx context.Context, token string) (*domain.LicenseVerification, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LicenseVerification), args.Error(1)
}

func (m *MockLicenseService) HardwareID(ctx context.Context) (*domain.HardwareIdentity, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HardwareIdentity), args.Error(1)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) domain.HealthReport {
	return m.Called(ctx).Get(0).(domain.HealthReport)
}

func (m *MockHealthChecker) Version() contracts.VersionInfo {
	return m.Called().Get(0).(contracts.VersionInfo)
}
