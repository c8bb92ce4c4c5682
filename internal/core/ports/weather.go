// Package ports declares the interfaces between the acquisition core and its adapters.
package ports

import (
	"context"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

// WeatherClient fetches current weather from the backend. Failures are
// returned as *domain.Failure.
type WeatherClient interface {
	ByCity(ctx context.Context, name string) (domain.WeatherRecord, error)
	ByCoordinates(ctx context.Context, coords domain.Coordinates) (domain.WeatherRecord, error)
}

// LocationProbe resolves the device position once per call.
type LocationProbe interface {
	CurrentPosition(ctx context.Context) (domain.Coordinates, error)
}

// Notice is a user-visible message raised outside of the acquisition state,
// such as a failed city search.
type Notice struct {
	// City is the query that failed
	City string

	// Kind is the failure class that triggered the notice
	Kind domain.FailureKind
}

// Notifier surfaces notices to the user.
type Notifier interface {
	Notify(notice Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify calls f(notice).
func (f NotifierFunc) Notify(notice Notice) {
	f(notice)
}
