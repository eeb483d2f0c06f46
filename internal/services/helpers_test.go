package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"licensegate/internal/infrastructure"
	"licensegate/internal/license"
	"licensegate/internal/shared/testutil"
)

var testNow = time.Date(2030, 6, 1, 9, 30, 0, 0, time.UTC)

var errNoMachineID = errors.New("machine id not readable")

type serviceHarness struct {
	svc      LicenseService
	fixtures *testutil.LicenseTestFixtures
	reader   *sdkmetric.ManualReader
	logs     *testutil.BufferedSlogHandler
}

func newHarness(t *testing.T, hw license.HardwareIdentityProvider) *serviceHarness {
	t.Helper()

	fixtures := testutil.NewLicenseTestFixtures(t, testNow)
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	logger, logs := testutil.NewTestLogger(t)
	svc, err := NewLicenseService(LicenseServiceConfig{
		PublicKey:      fixtures.PublicKey,
		Hardware:       hw,
		HardwareSource: "machine-id",
		Clock:          fixtures.Clock(),
		MaxTokenBytes:  4096,
		Metrics:        metrics,
		Logger:         logger,
	})
	require.NoError(t, err)

	return &serviceHarness{svc: svc, fixtures: fixtures, reader: reader, logs: logs}
}

// counterValue sums the data points of an int64 counter whose attributes
// include every pair in want.
func (h *serviceHarness) counterValue(t *testing.T, name string, want ...attribute.KeyValue) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, h.reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is %T", name, m.Data)
			for _, dp := range sum.DataPoints {
				if hasAttrs(dp.Attributes, want) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func hasAttrs(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func failingHardware() license.HardwareIdentityProvider {
	return license.HardwareIDFunc(func() (string, error) { return "", errNoMachineID })
}
