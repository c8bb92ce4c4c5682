// Package app provides application-level coordination and dependency injection.
// It builds the client chain, the acquisition controller and both primary
// adapters, and owns their lifecycles.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/adapters/primary/rest"
	"github.com/sean-rowe/weather-now/internal/adapters/primary/terminal"
	"github.com/sean-rowe/weather-now/internal/adapters/secondary/backend"
	"github.com/sean-rowe/weather-now/internal/adapters/secondary/geolocation"
	"github.com/sean-rowe/weather-now/internal/config"
	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/core/ports"
	"github.com/sean-rowe/weather-now/internal/core/services"
	"github.com/sean-rowe/weather-now/internal/infrastructure/cache"
	"github.com/sean-rowe/weather-now/internal/infrastructure/circuitbreaker"
	"github.com/sean-rowe/weather-now/internal/middleware"
	"github.com/sean-rowe/weather-now/internal/observability"
	"github.com/sean-rowe/weather-now/internal/presentation"
	"github.com/sean-rowe/weather-now/internal/version"
)

// App manages the application lifecycle and dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	telemetry *observability.Telemetry
	breakers  *circuitbreaker.Manager

	controller *services.AcquisitionController
	presenter  *presentation.Presenter
	terminal   *terminal.Terminal

	server   *http.Server
	listener net.Listener

	in  io.Reader
	out io.Writer
}

// New creates a new application instance.
//
// Parameters:
//   - cfg: Validated configuration
//   - in: Terminal input
//   - out: Terminal output
//
// Returns:
//   - *App: Configured application instance
//   - error: Logger initialization error
func New(cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logger, err := NewLogger(cfg.App)

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		breakers: circuitbreaker.NewManager(logger),
		in:       in,
		out:      out,
	}, nil
}

// NewLogger builds the process logger. Development mode uses the console
// encoder; both modes write to stderr so stdout stays with the terminal.
func NewLogger(cfg config.AppConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()

	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}

	zcfg.Level = level
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	return zcfg.Build()
}

// Start initializes all components, starts the status API if configured and
// mounts the controller, which kicks off geolocation.
//
// Parameters:
//   - ctx: Context for initialization
//
// Returns:
//   - error: Status API listen error
func (a *App) Start(ctx context.Context) error {
	if err := a.initTelemetry(ctx); err != nil {
		a.logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: a.cfg.Backend.HTTPTimeout}

	messages, err := presentation.NewMessages(a.cfg.App.Locale)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	a.presenter = presentation.NewPresenter(messages)
	a.controller = services.NewAcquisitionController(
		a.initWeatherClient(httpClient),
		geolocation.NewProbe(a.initPlatform(httpClient), a.logger),
		a.presenter,
		a.logger,
	)
	a.presenter.Attach(a.controller)
	a.terminal = terminal.NewTerminal(a.presenter, a.in, a.out, a.logger)

	if err := a.startStatusServer(); err != nil {
		return err
	}

	a.logger.Info("weather client started",
		zap.Stringer("version", version.Get()),
		zap.String("backend", a.cfg.Backend.BaseURL),
		zap.String("geolocation", a.cfg.Geolocation.Provider),
		zap.String("locale", a.presenter.Messages().Language().String()),
	)

	a.controller.Mount()

	return nil
}

// Run drives the terminal until the user quits, input ends or ctx is done.
func (a *App) Run(ctx context.Context) error {
	return a.terminal.Run(ctx)
}

// Stop gracefully shuts down all application components.
func (a *App) Stop() {
	a.logger.Info("shutting down application...")

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown status API gracefully", zap.Error(err))
		}
	}

	if a.presenter != nil {
		a.presenter.Detach()
	}

	if a.controller != nil {
		a.controller.Close()
	}

	if a.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}

	// Sync fails on some terminals; nothing useful to do about it.
	_ = a.logger.Sync()
}

// StatusAddr returns the bound status API address, or "" if it is disabled.
func (a *App) StatusAddr() string {
	if a.listener == nil {
		return ""
	}

	return a.listener.Addr().String()
}

// Presenter exposes the presenter, mainly for tests.
func (a *App) Presenter() *presentation.Presenter {
	return a.presenter
}

// Controller exposes the acquisition controller, mainly for tests.
func (a *App) Controller() *services.AcquisitionController {
	return a.controller
}

func (a *App) initTelemetry(ctx context.Context) error {
	telemetryConfig := observability.Config{
		ServiceName:    a.cfg.Observability.ServiceName,
		ServiceVersion: a.cfg.Observability.ServiceVersion,
		Environment:    a.cfg.App.Environment,
		TracingEnabled: a.cfg.Observability.Enabled,
		OTLPEndpoint:   a.cfg.Observability.OTLPEndpoint,
		SampleRate:     a.cfg.Observability.SampleRate,
	}

	var err error
	a.telemetry, err = observability.InitTelemetry(ctx, telemetryConfig, a.logger)

	return err
}

// initWeatherClient builds backend → optional session cache → circuit breaker.
// The breaker sits outermost so cache hits never count as backend traffic.
//
// Returns:
//   - ports.WeatherClient: Decorated backend client
func (a *App) initWeatherClient(httpClient *http.Client) ports.WeatherClient {
	var client ports.WeatherClient = backend.NewClient(a.cfg.Backend.BaseURL, httpClient, a.logger)

	if a.cfg.Cache.TTL > 0 {
		client = cache.NewCachedClient(client, cache.NewMemoryCache(a.cfg.Cache.TTL, 2*a.cfg.Cache.TTL, a.logger))
		a.logger.Info("session cache enabled", zap.Duration("ttl", a.cfg.Cache.TTL))
	}

	breaker := a.breakers.GetBreaker("weather-backend", circuitbreaker.Config{
		MaxRequests:     a.cfg.Breaker.MaxRequests,
		Interval:        a.cfg.Breaker.Interval,
		Timeout:         a.cfg.Breaker.Timeout,
		FailureRatio:    a.cfg.Breaker.FailureRatio,
		MinimumRequests: 3,
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				a.logger.Warn("weather backend unavailable, failing fast", zap.String("breaker", name))
			}
		},
	})

	return NewCircuitBreakerWeatherClient(client, breaker)
}

func (a *App) initPlatform(httpClient *http.Client) geolocation.Platform {
	switch a.cfg.Geolocation.Provider {
	case config.GeoProviderStatic:
		return geolocation.StaticPlatform{Coordinates: domain.Coordinates{
			Latitude:  a.cfg.Geolocation.Latitude,
			Longitude: a.cfg.Geolocation.Longitude,
		}}
	case config.GeoProviderOff:
		return geolocation.DeniedPlatform{}
	default:
		return geolocation.NewIPPlatform(a.cfg.Geolocation.IPLookupURL, httpClient, a.logger)
	}
}

// startStatusServer binds the status API synchronously so a bad address is
// reported by Start, then serves in the background.
func (a *App) startStatusServer() error {
	if a.cfg.Status.Addr == "" {
		return nil
	}

	var (
		obs     *middleware.ObservabilityMiddleware
		metrics http.Handler
	)

	if a.telemetry != nil {
		obs = middleware.NewObservabilityMiddleware(a.telemetry, a.logger)
		metrics = a.telemetry.MetricsHandler()
	}

	router := rest.NewRouter(rest.NewViewHandler(a.presenter, a.logger), obs, metrics)

	listener, err := net.Listen("tcp", a.cfg.Status.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.Status.Addr, err)
	}

	a.listener = listener
	a.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		a.logger.Info("starting status API", zap.String("addr", listener.Addr().String()))

		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("status API stopped", zap.Error(err))
		}
	}()

	return nil
}
