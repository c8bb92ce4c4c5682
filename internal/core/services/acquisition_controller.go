// Package services implements the weather acquisition state machine.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/core/ports"
)

// Source identifies which entry point issued a request.
type Source string

const (
	SourceGeolocation Source = "geolocation"
	SourceCoordinates Source = "coordinates"
	SourceCity        Source = "city"
)

// request tags one in-flight acquisition. Only the request holding the
// latest sequence number may change state.
type request struct {
	seq    uint64
	id     uuid.UUID
	source Source
}

// AcquisitionController decides which source to query, issues the request and
// reconciles the result with the acquisition state.
//
// Every request is tagged with a monotonically increasing sequence number;
// results of superseded requests are discarded, so state follows request
// issue order rather than response arrival order.
type AcquisitionController struct {
	client   ports.WeatherClient
	probe    ports.LocationProbe
	notifier ports.Notifier
	logger   *zap.Logger
	metrics  *acquisitionMetrics

	state *Observable[domain.AcquisitionState]

	mu      sync.Mutex
	seq     uint64
	settled domain.AcquisitionState
	mounted bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAcquisitionController creates a controller in the Idle state.
//
// Parameters:
//   - client: Backend weather client
//   - probe: Device location probe
//   - notifier: Sink for user-visible notices, may be nil
//   - logger: Zap logger
//
// Returns:
//   - *AcquisitionController: Controller ready to Mount
func NewAcquisitionController(
	client ports.WeatherClient,
	probe ports.LocationProbe,
	notifier ports.Notifier,
	logger *zap.Logger,
) *AcquisitionController {
	if notifier == nil {
		notifier = ports.NotifierFunc(func(ports.Notice) {})
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &AcquisitionController{
		client:   client,
		probe:    probe,
		notifier: notifier,
		logger:   logger,
		metrics:  newAcquisitionMetrics(logger),
		state:    NewObservable(domain.Idle()),
		settled:  domain.Idle(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// State returns the current acquisition state.
func (c *AcquisitionController) State() domain.AcquisitionState {
	return c.state.Get()
}

// Subscribe registers fn for every state change and calls it once with the
// current state. fn runs while the controller holds its lock, so it must not
// call Mount or Search synchronously.
func (c *AcquisitionController) Subscribe(fn func(domain.AcquisitionState)) (unsubscribe func()) {
	return c.state.Subscribe(fn)
}

// Mount starts the geolocation path. Calls after the first are no-ops.
func (c *AcquisitionController) Mount() {
	c.mu.Lock()

	if c.mounted || c.closed {
		c.mu.Unlock()
		return
	}

	c.mounted = true
	req := c.issueLocked(SourceGeolocation)
	c.mu.Unlock()

	go c.runGeolocation(req)
}

// Search issues a city lookup that supersedes any earlier request. Blank
// names are ignored.
//
// Parameters:
//   - city: City name typed by the user
//
// Returns:
//   - bool: true if a request was issued
func (c *AcquisitionController) Search(city string) bool {
	city = strings.TrimSpace(city)

	if city == "" {
		return false
	}

	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return false
	}

	req := c.issueLocked(SourceCity)
	c.mu.Unlock()

	go c.runCitySearch(req, city)

	return true
}

// Wait blocks until every in-flight request has been observed.
func (c *AcquisitionController) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight requests and waits for them to finish. Results
// observed after Close are discarded.
func (c *AcquisitionController) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// issueLocked allocates the next sequence number and enters Loading.
// Caller holds mu.
func (c *AcquisitionController) issueLocked(source Source) request {
	c.seq++

	req := request{seq: c.seq, id: uuid.New(), source: source}

	c.wg.Add(1)
	c.state.Set(domain.Loading())

	c.logger.Debug("acquisition request issued",
		zap.Uint64("seq", req.seq),
		zap.String("request_id", req.id.String()),
		zap.String("source", string(source)))

	return req
}

func (c *AcquisitionController) runGeolocation(req request) {
	defer c.wg.Done()

	coords, err := c.probe.CurrentPosition(c.ctx)

	if err != nil {
		c.logger.Warn("geolocation unavailable, falling back to manual search",
			zap.String("request_id", req.id.String()),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))

		c.settle(req, domain.GeoDenied(), "failure")

		return
	}

	if !c.isCurrent(req) {
		c.discard(req, "superseded before coordinate fetch")
		return
	}

	req.source = SourceCoordinates
	start := time.Now()
	record, err := c.client.ByCoordinates(c.ctx, coords)
	c.metrics.observeFetch(c.ctx, req.source, time.Since(start), err)

	if err != nil {
		c.logger.Error("fetching weather by coordinates failed",
			zap.String("request_id", req.id.String()),
			zap.Float64("latitude", coords.Latitude),
			zap.Float64("longitude", coords.Longitude),
			zap.String("kind", string(domain.KindOf(err))),
			zap.Error(err))

		c.settle(req, domain.GeoDenied(), "failure")

		return
	}

	c.settle(req, domain.Loaded(record), "success")
}

func (c *AcquisitionController) runCitySearch(req request, city string) {
	defer c.wg.Done()

	start := time.Now()
	record, err := c.client.ByCity(c.ctx, city)
	c.metrics.observeFetch(c.ctx, req.source, time.Since(start), err)

	if err == nil {
		c.settle(req, domain.Loaded(record), "success")
		return
	}

	c.logger.Error("fetching weather by city failed",
		zap.String("request_id", req.id.String()),
		zap.String("city", city),
		zap.String("kind", string(domain.KindOf(err))),
		zap.Error(err))

	c.mu.Lock()

	if !c.isCurrentLocked(req) {
		c.mu.Unlock()
		c.discard(req, "superseded")

		return
	}

	c.state.Set(c.settled)
	c.mu.Unlock()

	c.metrics.observeOutcome(c.ctx, req.source, "failure")
	c.notifier.Notify(ports.Notice{City: city, Kind: domain.KindOf(err)})
}

// settle applies next if req is still the latest request.
func (c *AcquisitionController) settle(req request, next domain.AcquisitionState, outcome string) {
	c.mu.Lock()

	if !c.isCurrentLocked(req) {
		c.mu.Unlock()
		c.discard(req, "superseded")

		return
	}

	c.settled = next
	c.state.Set(next)
	c.mu.Unlock()

	c.metrics.observeOutcome(c.ctx, req.source, outcome)
	c.logger.Info("acquisition settled",
		zap.Uint64("seq", req.seq),
		zap.String("request_id", req.id.String()),
		zap.String("source", string(req.source)),
		zap.String("state", next.String()))
}

func (c *AcquisitionController) isCurrent(req request) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.isCurrentLocked(req)
}

func (c *AcquisitionController) isCurrentLocked(req request) bool {
	return !c.closed && req.seq == c.seq
}

func (c *AcquisitionController) discard(req request, reason string) {
	c.metrics.observeStale(c.ctx, req.source)
	c.logger.Debug("discarding stale response",
		zap.Uint64("seq", req.seq),
		zap.String("request_id", req.id.String()),
		zap.String("source", string(req.source)),
		zap.String("reason", reason))
}
