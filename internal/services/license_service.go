package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"licensegate/internal/infrastructure"
	"licensegate/internal/license"
	"licensegate/internal/security"
	"licensegate/pkg/contracts/domain"
)

// Verification result labels
const (
	ResultValid    = "valid"
	ResultRejected = "rejected"
	ResultOK       = "ok"
	ResultError    = "error"
)

// LicenseService verifies licenses and reports the local hardware identity.
type LicenseService interface {
	Verify(ctx context.Context, token string) (*domain.LicenseVerification, error)
	HardwareID(ctx context.Context) (*domain.HardwareIdentity, error)
}

// LicenseServiceConfig carries the dependencies of the license service.
type LicenseServiceConfig struct {
	PublicKey      license.PublicKey
	Hardware       license.HardwareIdentityProvider
	HardwareSource string
	Clock          license.Clock
	MaxTokenBytes  int
	Tracer         trace.Tracer
	Metrics        *infrastructure.Metrics
	Logger         *slog.Logger
}

type licenseService struct {
	verifier      *license.Verifier
	hardware      license.HardwareIdentityProvider
	source        string
	clock         license.Clock
	maxTokenBytes int
	tracer        trace.Tracer
	metrics       *infrastructure.Metrics
	logger        *slog.Logger
}

// NewLicenseService builds the service. Tracer, clock and logger default to
// no-op, system and slog.Default respectively.
func NewLicenseService(cfg LicenseServiceConfig) (LicenseService, error) {
	if cfg.Metrics == nil {
		return nil, fmt.Errorf("license service: metrics are required")
	}
	if cfg.Clock == nil {
		cfg.Clock = license.SystemClock{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &licenseService{
		source:        cfg.HardwareSource,
		clock:         cfg.Clock,
		maxTokenBytes: cfg.MaxTokenBytes,
		tracer:        cfg.Tracer,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger.With(slog.String("component", "license_service")),
	}

	opts := []license.Option{license.WithClock(cfg.Clock)}
	if cfg.Hardware != nil {
		s.hardware = &countingProvider{next: cfg.Hardware, counter: cfg.Metrics.HardwareIDLookups}
		opts = append(opts, license.WithHardwareIdentity(s.hardware))
	}
	s.verifier = license.NewVerifier(cfg.PublicKey, opts...)

	return s, nil
}

// Verify runs the full verification pipeline on token.
func (s *licenseService) Verify(ctx context.Context, token string) (*domain.LicenseVerification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "license.verify",
		trace.WithAttributes(attribute.Int("license.token_bytes", len(token))))
	defer span.End()

	start := time.Now()

	var (
		res *license.Result
		err error
	)
	if s.maxTokenBytes > 0 && len(token) > s.maxTokenBytes {
		err = &license.Error{
			Kind: license.KindMalformedToken,
			Err:  fmt.Errorf("license is %d bytes, limit is %d", len(token), s.maxTokenBytes),
		}
	} else {
		res, err = s.verifier.Verify(token)
	}

	duration := time.Since(start)
	result, kind := ResultValid, "none"
	if err != nil {
		result, kind = ResultRejected, license.KindOf(err).String()
	}

	attrs := metric.WithAttributes(
		attribute.String("result", result),
		attribute.String("kind", kind),
	)
	s.metrics.VerificationsTotal.Add(ctx, 1, attrs)
	s.metrics.VerificationDuration.Record(ctx, duration.Seconds(), attrs)
	span.SetAttributes(
		attribute.String("license.result", result),
		attribute.String("license.kind", kind),
	)

	if err != nil {
		s.logRejection(ctx, err, duration)
		span.RecordError(err)
		if k := license.KindOf(err); k == license.KindKeyError || k == license.KindHardwareIdentityUnavailable {
			span.SetStatus(codes.Error, k.Code())
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "license verified",
		slog.String("license_id", security.MaskIdentifier(res.LicenseID)),
		slog.String("product", res.Product),
		slog.Time("expires_at", res.ExpiresAt),
		slog.Duration("duration", duration),
	)

	return &domain.LicenseVerification{
		Valid:     true,
		LicenseID: res.LicenseID,
		Product:   res.Product,
		ExpiresAt: res.ExpiresAt,
		ExpiresIn: humanize.RelTime(res.ExpiresAt, s.clock.Now(), "ago", "from now"),
	}, nil
}

func (s *licenseService) logRejection(ctx context.Context, err error, duration time.Duration) {
	attrs := []any{
		slog.String("error_code", license.KindOf(err).Code()),
		slog.Duration("duration", duration),
	}

	level := slog.LevelWarn
	if le, ok := asLicenseError(err); ok {
		switch le.Kind {
		case license.KindDeviceMismatch:
			attrs = append(attrs,
				slog.String("bound_hwid", security.MaskIdentifier(le.Bound)),
				slog.String("local_hwid", security.MaskIdentifier(le.Local)),
			)
		case license.KindParseError:
			attrs = append(attrs, slog.String("field", le.Field))
		case license.KindDecodeError:
			attrs = append(attrs, slog.String("segment", le.Segment))
		case license.KindKeyError, license.KindHardwareIdentityUnavailable:
			level = slog.LevelError
			attrs = append(attrs, slog.String("error", err.Error()))
		}
	}

	s.logger.Log(ctx, level, "license rejected", attrs...)
}

// HardwareID returns the identifier licenses must be bound to.
func (s *licenseService) HardwareID(ctx context.Context) (*domain.HardwareIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "license.hardware_id")
	defer span.End()

	if s.hardware == nil {
		err := &license.Error{Kind: license.KindHardwareIdentityUnavailable}
		span.SetStatus(codes.Error, err.Kind.Code())
		return nil, err
	}

	id, err := s.hardware.HardwareID()
	if err != nil {
		s.logger.ErrorContext(ctx, "hardware identity unavailable",
			slog.String("source", s.source),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, license.ErrCodeHardwareIdentityUnavailable)
		return nil, &license.Error{Kind: license.KindHardwareIdentityUnavailable, Err: err}
	}

	s.logger.DebugContext(ctx, "hardware identity read",
		slog.String("source", s.source),
		slog.String("hardware_id", security.MaskIdentifier(id)),
	)

	return &domain.HardwareIdentity{HardwareID: id, Source: s.source}, nil
}

// countingProvider records every lookup in hardware_id_lookups_total.
type countingProvider struct {
	next    license.HardwareIdentityProvider
	counter metric.Int64Counter
}

func (p *countingProvider) HardwareID() (string, error) {
	id, err := p.next.HardwareID()
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	p.counter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
	return id, err
}
