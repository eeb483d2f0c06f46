package infrastructure

import (
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application instruments.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	VerificationsTotal   metric.Int64Counter
	VerificationDuration metric.Float64Histogram
	HardwareIDLookups    metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	verificationsTotal, err := meter.Int64Counter(
		"license_verifications_total",
		metric.WithDescription("License verifications by result and failure kind"),
	)
	if err != nil {
		return nil, err
	}

	verificationDuration, err := meter.Float64Histogram(
		"license_verification_duration_seconds",
		metric.WithDescription("License verification duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	hardwareIDLookups, err := meter.Int64Counter(
		"hardware_id_lookups_total",
		metric.WithDescription("Local hardware identity lookups by result"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		HTTPActiveRequests:   httpActiveRequests,
		VerificationsTotal:   verificationsTotal,
		VerificationDuration: verificationDuration,
		HardwareIDLookups:    hardwareIDLookups,
	}, nil
}
