package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/multierr"

	"licensegate/internal/config"
	apierrors "licensegate/internal/errors"
	"licensegate/internal/infrastructure"
	"licensegate/internal/license"
	customMiddleware "licensegate/internal/middleware"
	"licensegate/internal/security"
	"licensegate/internal/services"
	transport "licensegate/internal/transport/http"
	"licensegate/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics
	Services      *ServiceContainer

	hardware license.HardwareIdentityProvider
	clock    license.Clock

	mu       sync.Mutex
	listener net.Listener
	serveErr chan error
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	License services.LicenseService
	Health  *services.HealthService
}

// Option customizes an Application.
type Option func(*Application)

// WithHardwareIdentity replaces the configured hardware identity source.
func WithHardwareIdentity(p license.HardwareIdentityProvider) Option {
	return func(a *Application) { a.hardware = p }
}

// WithClock replaces the system clock used for expiry checks.
func WithClock(c license.Clock) Option {
	return func(a *Application) { a.clock = c }
}

// NewApplication loads configuration and the process logger, then builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds the application from an already loaded configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	a := &Application{
		Config: cfg,
		Logger: logger,
		clock:  license.SystemClock{},
	}
	for _, opt := range opts {
		opt(a)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("hardware_source", cfg.Hardware.Source))

	otelProviders, err := infrastructure.InitializeOTel(
		infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a.OTelProviders = otelProviders

	metrics, err := infrastructure.NewMetrics(otelProviders.Meter)
	if err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	a.Metrics = metrics

	if err := a.initializeServices(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	publicKey, err := license.ParsePublicKey(a.Config.License.PublicKey)
	if err != nil {
		return fmt.Errorf("invalid license public key: %w", err)
	}

	if a.hardware == nil {
		hw, err := security.NewHardwareIdentityProvider(a.Config.Hardware, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to create hardware identity provider: %w", err)
		}
		a.hardware = hw
	}

	licenseService, err := services.NewLicenseService(services.LicenseServiceConfig{
		PublicKey:      publicKey,
		Hardware:       a.hardware,
		HardwareSource: a.Config.Hardware.Source,
		Clock:          a.clock,
		MaxTokenBytes:  a.Config.License.MaxTokenBytes,
		Tracer:         a.OTelProviders.Tracer,
		Metrics:        a.Metrics,
		Logger:         a.Logger,
	})
	if err != nil {
		return err
	}

	a.Services = &ServiceContainer{
		License: licenseService,
		Health:  services.NewHealthService(a.Config.License.PublicKey, a.hardware, a.Logger),
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → limits → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(errorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	r.Handle("/metrics", transport.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.MaxBodySize(int64(a.Config.License.MaxTokenBytes) + 1024))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		health := transport.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get("/health", health.HealthCheck)
		r.Get("/version", health.Version)

		r.Group(func(r chi.Router) {
			if a.Config.Security.RateLimit.Enabled {
				r.Use(customMiddleware.NewRateLimiter(
					a.Config.Security.RateLimit.RPS,
					a.Config.Security.RateLimit.Burst,
					a.Logger,
				).Handler)
			}

			licenseHandler := transport.NewLicenseHandler(
				a.Services.License,
				customMiddleware.NewValidator(a.Logger),
				errorHandler,
				a.Logger,
			)
			r.Mount("/license", licenseHandler.Routes())
		})
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:              a.Config.Server.Addr(),
		Handler:           a.Router,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		ReadHeaderTimeout: a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
		IdleTimeout:       a.Config.Server.IdleTimeout,
		MaxHeaderBytes:    a.Config.Server.MaxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Start binds the listener and serves in the background.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}

	a.mu.Lock()
	a.listener = ln
	a.serveErr = make(chan error, 1)
	a.mu.Unlock()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.serveErr <- err
		}
		close(a.serveErr)
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", "http://"+ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (a *Application) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// Errors reports a server failure after Start. It is closed when serving ends.
func (a *Application) Errors() <-chan error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.serveErr
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var result error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		result = multierr.Append(result, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			result = multierr.Append(result, fmt.Errorf("telemetry shutdown error: %w", err))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return result
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
	case err := <-a.Errors():
		serveErr = err
		a.Logger.Error("Server error", slog.Any("error", err))
	}

	return multierr.Combine(serveErr, a.Stop(context.Background()))
}
