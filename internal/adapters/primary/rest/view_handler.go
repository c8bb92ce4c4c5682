// Package rest implements the local status API. It is a second primary
// adapter over the same presenter the terminal drives, so a search issued
// here shows up on the terminal and vice versa.
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/middleware"
	"github.com/sean-rowe/weather-now/internal/presentation"
	"github.com/sean-rowe/weather-now/internal/version"
)

// maxBodyBytes bounds request bodies; a search body is a single city name.
const maxBodyBytes = 4 << 10

// ViewService is the part of the presenter the handlers drive.
type ViewService interface {
	Screen() presentation.Screen
	SetQuery(query string)
	Submit() bool
	ToggleUnit() domain.UnitPreference
}

// ViewHandler handles HTTP requests against the current view.
type ViewHandler struct {
	// view provides the current screen and accepts user actions
	view ViewService

	validate *validator.Validate

	// logger records request processing events and errors
	logger *zap.Logger
}

// NewViewHandler creates a new HTTP handler for view operations.
//
// Parameters:
//   - view: ViewService driving the presenter
//   - logger: Zap logger for request logging and error tracking
//
// Returns:
//   - *ViewHandler: Configured handler instance
func NewViewHandler(view ViewService, logger *zap.Logger) *ViewHandler {
	return &ViewHandler{
		view:     view,
		validate: validator.New(),
		logger:   logger,
	}
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	City string `json:"city" validate:"required,max=100"`
}

// SearchResponse acknowledges a search. The outcome arrives asynchronously;
// poll GET /api/v1/view to observe it.
type SearchResponse struct {
	Accepted bool                `json:"accepted"`
	Screen   presentation.Screen `json:"screen"`
}

// UnitResponse reports the unit after a toggle.
type UnitResponse struct {
	Unit   string              `json:"unit"`
	Screen presentation.Screen `json:"screen"`
}

// ErrorResponse represents a standardized error response structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GetView handles GET /api/v1/view.
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, h.view.Screen())
}

// Search handles POST /api/v1/search.
//
// Response codes:
//   - 202: Search issued, SearchResponse JSON
//   - 400: Malformed body or blank city (INVALID_BODY, INVALID_CITY)
//   - 409: Search not issued because the client is shutting down (NOT_ACCEPTED)
func (h *ViewHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest

	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be JSON like {\"city\": \"Madrid\"}")
		return
	}

	req.City = strings.TrimSpace(req.City)

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			h.logger.Debug("search rejected",
				zap.String("field", verrs[0].Field()),
				zap.String("tag", verrs[0].Tag()),
				zap.String("request_id", middleware.GetRequestID(r.Context())),
			)
		}

		h.respondWithError(w, http.StatusBadRequest, "INVALID_CITY", "City must be between 1 and 100 characters")

		return
	}

	h.view.SetQuery(req.City)

	if !h.view.Submit() {
		h.respondWithError(w, http.StatusConflict, "NOT_ACCEPTED", "Search was not issued")
		return
	}

	h.logger.Info("search issued from status API",
		zap.String("city", req.City),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
	)

	h.respondWithJSON(w, http.StatusAccepted, SearchResponse{Accepted: true, Screen: h.view.Screen()})
}

// ToggleUnit handles POST /api/v1/unit/toggle.
func (h *ViewHandler) ToggleUnit(w http.ResponseWriter, r *http.Request) {
	unit := h.view.ToggleUnit()

	h.respondWithJSON(w, http.StatusOK, UnitResponse{Unit: unit.String(), Screen: h.view.Screen()})
}

// Health handles GET /health.
func (h *ViewHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version handles GET /version.
func (h *ViewHandler) Version(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, version.Get())
}

// respondWithJSON sends a JSON response with the specified status code.
//
// Parameters:
//   - w: HTTP response writer
//   - status: HTTP status code to return
//   - payload: Data to encode as JSON response body
func (h *ViewHandler) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondWithError sends a standardized error response.
func (h *ViewHandler) respondWithError(w http.ResponseWriter, status int, code, message string) {
	h.respondWithJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
