package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

func testConfig() Config {
	return Config{
		MaxRequests:     1,
		Interval:        time.Minute,
		Timeout:         time.Minute,
		MinimumRequests: 2,
	}
}

func TestBreaker_TripsOnNetworkErrors(t *testing.T) {
	b := NewManager(zap.NewNop()).GetBreaker("backend", testConfig())
	fail := func() error { return domain.NewFailure(domain.NetworkError, "down", errors.New("refused")) }

	_ = b.Execute(context.Background(), "by_city", fail)
	_ = b.Execute(context.Background(), "by_city", fail)

	assert.Equal(t, gobreaker.StateOpen, b.State())

	called := false
	err := b.Execute(context.Background(), "by_city", func() error {
		called = true
		return nil
	})

	assert.False(t, called)
	assert.Equal(t, domain.NetworkError, domain.KindOf(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreaker_IgnoresClientSideFailures(t *testing.T) {
	b := NewBreaker(testConfig(), zap.NewNop())

	for _, kind := range []domain.FailureKind{domain.NotFound, domain.InvalidInput, domain.MalformedResponse} {
		err := b.Execute(context.Background(), "by_city", func() error {
			return &domain.Failure{Kind: kind}
		})

		assert.Equal(t, kind, domain.KindOf(err), "the original failure is returned")
	}

	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestManager_GetBreakerReusesInstances(t *testing.T) {
	m := NewManager(zap.NewNop())

	first := m.GetBreaker("backend", testConfig())
	second := m.GetBreaker("backend", Config{})

	assert.Same(t, first, second)

	stats := m.GetStats()
	assert.Contains(t, stats, "backend")
}
