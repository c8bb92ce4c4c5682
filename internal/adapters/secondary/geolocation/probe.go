// Package geolocation resolves the device position for the acquisition core.
//
// Host facilities report positions through a callback pair, the way a
// browser's getCurrentPosition does. Probe turns such a Platform into a
// blocking call with exactly one resolution.
package geolocation

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

// ErrorCode is a platform-reported positioning error.
type ErrorCode int

const (
	CodePermissionDenied    ErrorCode = 1
	CodePositionUnavailable ErrorCode = 2
	CodeTimeout             ErrorCode = 3
)

// PositionError is delivered to the error callback.
type PositionError struct {
	Code    ErrorCode
	Message string
}

// Platform is a single-shot, callback based position source. Implementations
// call exactly one of the callbacks, possibly from another goroutine.
type Platform interface {
	GetCurrentPosition(ctx context.Context, onSuccess func(domain.Coordinates), onError func(PositionError))
}

// Probe implements ports.LocationProbe on top of a Platform. It neither
// caches positions nor applies a timeout of its own.
type Probe struct {
	platform Platform
	logger   *zap.Logger
}

// NewProbe wraps platform.
func NewProbe(platform Platform, logger *zap.Logger) *Probe {
	return &Probe{platform: platform, logger: logger}
}

type outcome struct {
	coords domain.Coordinates
	err    error
}

// CurrentPosition issues a fresh platform query and waits for its first callback.
//
// Parameters:
//   - ctx: Context; cancellation resolves the call with Unavailable
//
// Returns:
//   - domain.Coordinates: Device position
//   - error: *domain.Failure with kind PermissionDenied or Unavailable
func (p *Probe) CurrentPosition(ctx context.Context) (domain.Coordinates, error) {
	result := make(chan outcome, 1)

	var once sync.Once

	resolve := func(o outcome) {
		once.Do(func() { result <- o })
	}

	p.platform.GetCurrentPosition(ctx,
		func(coords domain.Coordinates) {
			resolve(outcome{coords: coords})
		},
		func(perr PositionError) {
			resolve(outcome{err: toFailure(perr)})
		},
	)

	select {
	case o := <-result:
		if o.err != nil {
			p.logger.Warn("geolocation failed", zap.String("kind", string(domain.KindOf(o.err))), zap.Error(o.err))
			return domain.Coordinates{}, o.err
		}

		p.logger.Debug("geolocation resolved",
			zap.Float64("latitude", o.coords.Latitude),
			zap.Float64("longitude", o.coords.Longitude))

		return o.coords, nil
	case <-ctx.Done():
		return domain.Coordinates{}, domain.NewFailure(domain.Unavailable, "position request abandoned", ctx.Err())
	}
}

func toFailure(perr PositionError) *domain.Failure {
	if perr.Code == CodePermissionDenied {
		return domain.NewFailure(domain.PermissionDenied, perr.Message, nil)
	}

	return domain.NewFailure(domain.Unavailable, perr.Message, nil)
}
