package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/presentation"
)

// MockViewService is a mock implementation of the ViewService interface.
type MockViewService struct {
	mock.Mock
}

func (m *MockViewService) Screen() presentation.Screen {
	return m.Called().Get(0).(presentation.Screen)
}

func (m *MockViewService) SetQuery(query string) {
	m.Called(query)
}

func (m *MockViewService) Submit() bool {
	return m.Called().Bool(0)
}

func (m *MockViewService) ToggleUnit() domain.UnitPreference {
	return m.Called().Get(0).(domain.UnitPreference)
}

func newTestRouter(view ViewService) http.Handler {
	return NewRouter(NewViewHandler(view, zap.NewNop()), nil, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	}))
}

func TestViewHandler_GetView(t *testing.T) {
	view := new(MockViewService)
	screen := presentation.Screen{
		Phase: "loaded",
		Unit:  "°C",
		Weather: &presentation.ViewModel{
			Location:        "New York, US",
			TemperatureText: "15°C",
		},
	}
	view.On("Screen").Return(screen)

	rec := httptest.NewRecorder()
	newTestRouter(view).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/view", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var got presentation.Screen
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, screen.Phase, got.Phase)
	require.NotNil(t, got.Weather)
	assert.Equal(t, "15°C", got.Weather.TemperatureText)
}

func TestViewHandler_Search(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockViewService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "issued",
			body: `{"city": "  Madrid "}`,
			setupMock: func(m *MockViewService) {
				m.On("SetQuery", "Madrid").Once()
				m.On("Submit").Return(true).Once()
				m.On("Screen").Return(presentation.Screen{Phase: "loading"})
			},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "malformed body",
			body:           `{"city":`,
			setupMock:      func(m *MockViewService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_BODY",
		},
		{
			name:           "blank city",
			body:           `{"city": "   "}`,
			setupMock:      func(m *MockViewService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_CITY",
		},
		{
			name:           "too long",
			body:           `{"city": "` + strings.Repeat("a", 101) + `"}`,
			setupMock:      func(m *MockViewService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_CITY",
		},
		{
			name: "controller closed",
			body: `{"city": "Madrid"}`,
			setupMock: func(m *MockViewService) {
				m.On("SetQuery", "Madrid").Once()
				m.On("Submit").Return(false).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "NOT_ACCEPTED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := new(MockViewService)
			tt.setupMock(view)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/search", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newTestRouter(view).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)

			if tt.expectedError != "" {
				var body ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.expectedError, body.Error)
			} else {
				var body SearchResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.True(t, body.Accepted)
				assert.Equal(t, "loading", body.Screen.Phase)
			}

			view.AssertExpectations(t)
		})
	}
}

func TestViewHandler_ToggleUnit(t *testing.T) {
	view := new(MockViewService)
	view.On("ToggleUnit").Return(domain.Fahrenheit).Once()
	view.On("Screen").Return(presentation.Screen{Phase: "idle", Unit: "°F"})

	rec := httptest.NewRecorder()
	newTestRouter(view).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/unit/toggle", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body UnitResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "°F", body.Unit)
	view.AssertExpectations(t)
}

func TestRouter_Ambient(t *testing.T) {
	router := newTestRouter(new(MockViewService))

	tests := []struct {
		method   string
		path     string
		expected int
		contains string
	}{
		{method: http.MethodGet, path: "/health", expected: http.StatusOK, contains: `"ok"`},
		{method: http.MethodGet, path: "/version", expected: http.StatusOK, contains: `"go_version"`},
		{method: http.MethodGet, path: "/metrics", expected: http.StatusOK, contains: "# metrics"},
		{method: http.MethodGet, path: "/api/v1/search", expected: http.StatusMethodNotAllowed},
		{method: http.MethodGet, path: "/nope", expected: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.expected, rec.Code)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}
