package app

import (
	"context"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/core/ports"
	"github.com/sean-rowe/weather-now/internal/infrastructure/circuitbreaker"
)

// CircuitBreakerWeatherClient wraps a weather client with circuit breaker protection
// to provide fault tolerance for backend calls. While the breaker is open calls
// fail fast with a NetworkError.
type CircuitBreakerWeatherClient struct {
	client ports.WeatherClient
	cb     *circuitbreaker.Breaker
}

// NewCircuitBreakerWeatherClient wraps client with cb.
func NewCircuitBreakerWeatherClient(client ports.WeatherClient, cb *circuitbreaker.Breaker) *CircuitBreakerWeatherClient {
	return &CircuitBreakerWeatherClient{client: client, cb: cb}
}

// ByCity retrieves weather for a city name with circuit breaker protection.
func (c *CircuitBreakerWeatherClient) ByCity(ctx context.Context, name string) (domain.WeatherRecord, error) {
	var result domain.WeatherRecord

	err := c.cb.Execute(ctx, "by-city", func() error {
		var err error
		result, err = c.client.ByCity(ctx, name)

		return err
	})

	return result, err
}

// ByCoordinates retrieves weather for a position with circuit breaker protection.
func (c *CircuitBreakerWeatherClient) ByCoordinates(ctx context.Context, coords domain.Coordinates) (domain.WeatherRecord, error) {
	var result domain.WeatherRecord

	err := c.cb.Execute(ctx, "by-coordinates", func() error {
		var err error
		result, err = c.client.ByCoordinates(ctx, coords)

		return err
	})

	return result, err
}
