// Package backend implements the client for the weather backend API.
// This package serves as a secondary adapter, translating city and coordinate
// lookups into backend calls and converting responses into domain records.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

// DefaultTimeout bounds a request whose context carries no deadline.
const DefaultTimeout = 10 * time.Second

// Client implements ports.WeatherClient against the backend HTTP API.
// It performs exactly one GET per call and never retries.
type Client struct {
	// baseURL is the backend endpoint, without trailing slash
	baseURL string

	// httpClient handles HTTP communication
	httpClient *http.Client

	// timeout is applied when the caller's context has no deadline
	timeout time.Duration

	validate *validator.Validate
	logger   *zap.Logger
}

// NewClient creates a backend client.
//
// Parameters:
//   - baseURL: backend base URL, e.g. http://localhost:8000/api
//   - httpClient: HTTP client, its Timeout also bounds requests
//   - logger: Zap logger for request logging
//
// Returns:
//   - *Client: Configured backend client
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	timeout := httpClient.Timeout

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		validate:   validator.New(),
		logger:     logger,
	}
}

// weatherResponse is the subset of the backend body the client consumes.
// Pointer fields distinguish an absent value from a zero.
type weatherResponse struct {
	Name      string           `json:"name" validate:"required"`
	Sys       sysBlock         `json:"sys"`
	Main      *mainBlock       `json:"main" validate:"required"`
	Condition []conditionBlock `json:"weather" validate:"required,min=1"`
	Wind      *windBlock       `json:"wind"`
	Clouds    *cloudsBlock     `json:"clouds"`
}

type sysBlock struct {
	Country string `json:"country"`
}

type mainBlock struct {
	Temp     *float64 `json:"temp" validate:"required"`
	Pressure *float64 `json:"pressure"`
}

type conditionBlock struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type windBlock struct {
	Speed *float64 `json:"speed"`
}

type cloudsBlock struct {
	All *float64 `json:"all"`
}

// ByCity retrieves the current weather for a city name.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - name: City name, trimmed before use
//
// Returns:
//   - domain.WeatherRecord: Validated weather snapshot
//   - error: *domain.Failure with kind InvalidInput, NetworkError, NotFound,
//     ServerError or MalformedResponse
func (c *Client) ByCity(ctx context.Context, name string) (domain.WeatherRecord, error) {
	name = strings.TrimSpace(name)

	if name == "" {
		return domain.WeatherRecord{}, domain.NewFailure(domain.InvalidInput, "city name is empty", nil)
	}

	query := url.Values{}
	query.Set("city", name)

	ctx, span := otel.Tracer("weather-client").Start(ctx, "WeatherClient.ByCity")
	defer span.End()

	span.SetAttributes(attribute.String("weather.city", name))

	record, err := c.get(ctx, "/weather/city", query)

	c.finish(span, "by_city", err, zap.String("city", name))

	return record, err
}

// ByCoordinates retrieves the current weather for a position.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - coords: Latitude in [-90,90], longitude in [-180,180]
//
// Returns:
//   - domain.WeatherRecord: Validated weather snapshot
//   - error: *domain.Failure, see ByCity
func (c *Client) ByCoordinates(ctx context.Context, coords domain.Coordinates) (domain.WeatherRecord, error) {
	if err := coords.Validate(); err != nil {
		return domain.WeatherRecord{}, domain.NewFailure(domain.InvalidInput, "invalid coordinates", err)
	}

	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))

	ctx, span := otel.Tracer("weather-client").Start(ctx, "WeatherClient.ByCoordinates")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("weather.latitude", coords.Latitude),
		attribute.Float64("weather.longitude", coords.Longitude),
	)

	record, err := c.get(ctx, "/weather/coordinates", query)

	c.finish(span, "by_coordinates", err,
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude))

	return record, err
}

// finish records the outcome on the span and in the log.
func (c *Client) finish(span trace.Span, operation string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("operation", operation))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domain.KindOf(err)))

		c.logger.Warn("weather request failed",
			append(fields, zap.String("kind", string(domain.KindOf(err))), zap.Error(err))...)

		return
	}

	span.SetStatus(codes.Ok, "")
	c.logger.Debug("weather request succeeded", fields...)
}

// get issues one GET against path and decodes the body into a record.
//
// Parameters:
//   - ctx: Context for cancellation (adds the client timeout if none)
//   - path: Endpoint path below baseURL
//   - query: Query parameters
//
// Returns:
//   - domain.WeatherRecord: Validated record
//   - error: *domain.Failure
func (c *Client) get(ctx context.Context, path string, query url.Values) (domain.WeatherRecord, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)

	if err != nil {
		return domain.WeatherRecord{}, domain.NewFailure(domain.NetworkError, "building request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "weather-now/1.0")

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return domain.WeatherRecord{}, domain.NewFailure(domain.NetworkError, "GET "+path, err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("failed to close response body", zap.Error(err))
		}
	}(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.WeatherRecord{}, &domain.Failure{Kind: domain.NotFound, Status: resp.StatusCode, Detail: "GET " + path}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return domain.WeatherRecord{}, &domain.Failure{Kind: domain.ServerError, Status: resp.StatusCode, Detail: "GET " + path}
	}

	var body weatherResponse

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if isTransportError(ctx, err) {
			return domain.WeatherRecord{}, domain.NewFailure(domain.NetworkError, "reading body", err)
		}

		return domain.WeatherRecord{}, domain.NewFailure(domain.MalformedResponse, "decoding body", err)
	}

	if err := c.validate.Struct(body); err != nil {
		return domain.WeatherRecord{}, domain.NewFailure(domain.MalformedResponse, "validating body", err)
	}

	return body.toRecord(), nil
}

// isTransportError reports whether a decode error came from the connection
// rather than from the body's content.
func isTransportError(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}

func (r weatherResponse) toRecord() domain.WeatherRecord {
	condition := r.Condition[0]

	record := domain.WeatherRecord{
		ID:            uuid.New(),
		Location:      r.Name,
		Country:       r.Sys.Country,
		Temperature:   *r.Main.Temp,
		ConditionCode: condition.ID,
		Description:   condition.Description,
		Icon:          condition.Icon,
		Pressure:      reading(r.Main.Pressure),
		FetchedAt:     time.Now().UTC(),
	}

	if r.Wind != nil {
		record.WindSpeed = reading(r.Wind.Speed)
	}

	if r.Clouds != nil {
		record.Clouds = reading(r.Clouds.All)
	}

	return record
}

func reading(v *float64) domain.Reading {
	if v == nil {
		return domain.Reading{}
	}

	return domain.Measured(*v)
}

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("backend(%s)", c.baseURL)
}
