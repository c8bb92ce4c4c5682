// Package circuitbreaker protects the weather backend from repeated calls
// while it is failing. It wraps Sony's GoBreaker with tracing, structured
// logging and translation of breaker rejections into domain failures.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

// Breaker wraps a gobreaker.CircuitBreaker.
type Breaker struct {
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	name    string
}

// Config defines breaker thresholds.
type Config struct {
	Name string

	// MaxRequests allowed through while half-open
	MaxRequests uint32

	// Interval after which closed-state counts reset
	Interval time.Duration

	// Timeout is how long the breaker stays open
	Timeout time.Duration

	// FailureRatio trips the breaker once MinimumRequests have been seen
	FailureRatio float64

	MinimumRequests uint32

	OnStateChange func(name string, from gobreaker.State, to gobreaker.State)
}

// NewBreaker creates a breaker from cfg. Failures that say nothing about the
// backend's health (unknown city, bad input, malformed body) do not count
// towards tripping.
//
// Parameters:
//   - cfg: Breaker configuration
//   - logger: Zap logger for state changes
//
// Returns:
//   - *Breaker: Configured breaker
func NewBreaker(cfg Config, logger *zap.Logger) *Breaker {
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}

	if cfg.MinimumRequests == 0 {
		cfg.MinimumRequests = 3
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= cfg.MinimumRequests && failureRatio >= cfg.FailureRatio
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))

			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	return &Breaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		name:    cfg.Name,
	}
}

func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}

	switch domain.KindOf(err) {
	case domain.NotFound, domain.InvalidInput, domain.MalformedResponse:
		return true
	}

	return false
}

// Execute runs fn within the breaker. A rejected call returns a NetworkError
// failure wrapping gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests.
//
// Parameters:
//   - ctx: Context for tracing
//   - operation: Operation name for logs and spans
//   - fn: Protected call
//
// Returns:
//   - error: fn's error, or the rejection failure
func (b *Breaker) Execute(ctx context.Context, operation string, fn func() error) error {
	_, span := otel.Tracer("circuit-breaker").Start(ctx, "CircuitBreaker.Execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("circuit_breaker.name", b.name),
		attribute.String("circuit_breaker.operation", operation),
		attribute.String("circuit_breaker.state", b.breaker.State().String()),
	)

	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		b.logger.Warn("circuit breaker rejected call",
			zap.String("name", b.name),
			zap.String("operation", operation),
			zap.String("state", b.breaker.State().String()))

		err = domain.NewFailure(domain.NetworkError, "backend temporarily unavailable", err)
	}

	if err != nil {
		span.RecordError(err)
	}

	span.SetAttributes(
		attribute.String("circuit_breaker.final_state", b.breaker.State().String()),
		attribute.Bool("circuit_breaker.success", err == nil),
	)

	return err
}

// State returns the current breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}

// Counts returns the current breaker statistics.
func (b *Breaker) Counts() gobreaker.Counts {
	return b.breaker.Counts()
}

// Manager hands out named breakers.
type Manager struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	logger   *zap.Logger
}

// NewManager creates an empty manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*Breaker),
		logger:   logger,
	}
}

// GetBreaker retrieves or creates a breaker by name; cfg is ignored if it exists.
func (m *Manager) GetBreaker(name string, cfg Config) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if breaker, exists := m.breakers[name]; exists {
		return breaker
	}

	cfg.Name = name
	breaker := NewBreaker(cfg, m.logger)
	m.breakers[name] = breaker

	return breaker
}

// GetStats returns statistics for all managed breakers keyed by name.
func (m *Manager) GetStats() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := make(map[string]interface{})

	for name, breaker := range m.breakers {
		counts := breaker.Counts()
		stats[name] = map[string]interface{}{
			"state":                 breaker.State().String(),
			"requests":              counts.Requests,
			"total_successes":       counts.TotalSuccesses,
			"total_failures":        counts.TotalFailures,
			"consecutive_successes": counts.ConsecutiveSuccesses,
			"consecutive_failures":  counts.ConsecutiveFailures,
		}
	}

	return stats
}
