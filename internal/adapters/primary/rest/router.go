package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/sean-rowe/weather-now/internal/middleware"
)

// searchRate bounds how fast one client can issue searches against the backend.
const (
	searchRate  = rate.Limit(2)
	searchBurst = 5
)

// NewRouter builds the status API routes.
//
// Parameters:
//   - handler: View handler serving the API
//   - obs: Observability middleware; nil disables tracing, metrics and request logs
//   - metrics: Handler for GET /metrics; nil leaves the route unregistered
//
// Returns:
//   - *mux.Router: Router ready to serve
func NewRouter(handler *ViewHandler, obs *middleware.ObservabilityMiddleware, metrics http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware)

	if obs != nil {
		router.Use(obs.TracingMiddleware, obs.MetricsMiddleware, obs.LoggingMiddleware)
	}

	router.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	router.HandleFunc("/version", handler.Version).Methods(http.MethodGet)

	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/view", handler.GetView).Methods(http.MethodGet)
	api.HandleFunc("/unit/toggle", handler.ToggleUnit).Methods(http.MethodPost)
	api.Handle("/search",
		middleware.NewRateLimiter(searchRate, searchBurst).Middleware(http.HandlerFunc(handler.Search)),
	).Methods(http.MethodPost)

	return router
}
