package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

// DefaultIPLookupURL is the public IP geolocation endpoint used by IPPlatform.
const DefaultIPLookupURL = "http://ip-api.com/json"

// IPPlatform approximates the device position from its public IP address.
type IPPlatform struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewIPPlatform creates an IP lookup platform.
//
// Parameters:
//   - url: lookup endpoint returning {"status","lat","lon"}; DefaultIPLookupURL if empty
//   - httpClient: HTTP client for the lookup
//   - logger: Zap logger
//
// Returns:
//   - *IPPlatform: Configured platform
func NewIPPlatform(url string, httpClient *http.Client, logger *zap.Logger) *IPPlatform {
	if url == "" {
		url = DefaultIPLookupURL
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &IPPlatform{url: url, httpClient: httpClient, logger: logger}
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// GetCurrentPosition runs the lookup in its own goroutine and reports through
// the callbacks.
func (p *IPPlatform) GetCurrentPosition(ctx context.Context, onSuccess func(domain.Coordinates), onError func(PositionError)) {
	go func() {
		coords, err := p.lookup(ctx)

		if err != nil {
			p.logger.Debug("ip geolocation lookup failed", zap.String("url", p.url), zap.Error(err))
			onError(PositionError{Code: CodePositionUnavailable, Message: err.Error()})
			return
		}

		onSuccess(coords)
	}()
}

func (p *IPPlatform) lookup(ctx context.Context) (domain.Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)

	if err != nil {
		return domain.Coordinates{}, err
	}

	resp, err := p.httpClient.Do(req)

	if err != nil {
		return domain.Coordinates{}, err
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return domain.Coordinates{}, fmt.Errorf("ip lookup returned status %d", resp.StatusCode)
	}

	var body ipLookupResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decoding ip lookup: %w", err)
	}

	if body.Status != "success" {
		return domain.Coordinates{}, fmt.Errorf("ip lookup failed: %s", body.Message)
	}

	coords := domain.Coordinates{Latitude: body.Lat, Longitude: body.Lon}

	if err := coords.Validate(); err != nil {
		return domain.Coordinates{}, err
	}

	return coords, nil
}

// StaticPlatform always reports a configured position.
type StaticPlatform struct {
	Coordinates domain.Coordinates
}

// GetCurrentPosition reports the configured coordinates synchronously.
func (p StaticPlatform) GetCurrentPosition(_ context.Context, onSuccess func(domain.Coordinates), onError func(PositionError)) {
	if err := p.Coordinates.Validate(); err != nil {
		onError(PositionError{Code: CodePositionUnavailable, Message: err.Error()})
		return
	}

	onSuccess(p.Coordinates)
}

// DeniedPlatform models a user who declined location access.
type DeniedPlatform struct{}

// GetCurrentPosition always reports permission denied.
func (DeniedPlatform) GetCurrentPosition(_ context.Context, _ func(domain.Coordinates), onError func(PositionError)) {
	onError(PositionError{Code: CodePermissionDenied, Message: "user denied geolocation"})
}
