package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

const newYorkBody = `{
	"name": "New York",
	"main": {"temp": 15, "pressure": 1012},
	"weather": [{"id": 800, "description": "clear sky", "icon": "01d"}],
	"wind": {"speed": 3.1},
	"clouds": {"all": 10},
	"sys": {"country": "US"}
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/", &http.Client{Timeout: 2 * time.Second}, zap.NewNop())

	return client, server
}

func TestClient_ByCity(t *testing.T) {
	var gotPath, gotCity string

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCity = r.URL.Query().Get("city")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(newYorkBody))
	})

	record, err := client.ByCity(context.Background(), "  New York ")

	require.NoError(t, err)
	assert.Equal(t, "/weather/city", gotPath)
	assert.Equal(t, "New York", gotCity)
	assert.Equal(t, "New York", record.Location)
	assert.Equal(t, "US", record.Country)
	assert.Equal(t, 15.0, record.Temperature)
	assert.Equal(t, 800, record.ConditionCode)
	assert.Equal(t, "clear sky", record.Description)
	assert.Equal(t, "01d", record.Icon)
	assert.Equal(t, domain.Measured(3.1), record.WindSpeed)
	assert.Equal(t, domain.Measured(10), record.Clouds)
	assert.Equal(t, domain.Measured(1012), record.Pressure)
	assert.False(t, record.FetchedAt.IsZero())
}

func TestClient_ByCoordinates(t *testing.T) {
	var gotLat, gotLon, gotPath string

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLat = r.URL.Query().Get("lat")
		gotLon = r.URL.Query().Get("lon")
		_, _ = w.Write([]byte(newYorkBody))
	})

	record, err := client.ByCoordinates(context.Background(), domain.Coordinates{Latitude: 40.7, Longitude: -74.0})

	require.NoError(t, err)
	assert.Equal(t, "/weather/coordinates", gotPath)
	assert.Equal(t, "40.7", gotLat)
	assert.Equal(t, "-74", gotLon)
	assert.Equal(t, "New York", record.Location)
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   domain.FailureKind
		wantStatus int
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"message":"city not found"}`, wantKind: domain.NotFound, wantStatus: 404},
		{name: "server error", status: http.StatusBadGateway, wantKind: domain.ServerError, wantStatus: 502},
		{name: "invalid json", status: http.StatusOK, body: `{"name":`, wantKind: domain.MalformedResponse},
		{name: "missing name", status: http.StatusOK, body: `{"main":{"temp":1},"weather":[{"icon":"01d"}]}`, wantKind: domain.MalformedResponse},
		{name: "missing main", status: http.StatusOK, body: `{"name":"X","weather":[{"icon":"01d"}]}`, wantKind: domain.MalformedResponse},
		{name: "missing temp", status: http.StatusOK, body: `{"name":"X","main":{"pressure":1000},"weather":[{"icon":"01d"}]}`, wantKind: domain.MalformedResponse},
		{name: "empty conditions", status: http.StatusOK, body: `{"name":"X","main":{"temp":1},"weather":[]}`, wantKind: domain.MalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.ByCity(context.Background(), "Madrid")

			require.Error(t, err)

			var failure *domain.Failure

			require.ErrorAs(t, err, &failure)
			assert.Equal(t, tt.wantKind, failure.Kind)
			assert.Equal(t, tt.wantStatus, failure.Status)
		})
	}
}

func TestClient_PartialRecord(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Reykjavik","main":{"temp":0},"weather":[{"description":"mist","icon":"50n"}]}`))
	})

	record, err := client.ByCity(context.Background(), "Reykjavik")

	require.NoError(t, err)
	assert.Equal(t, 0.0, record.Temperature)
	assert.False(t, record.WindSpeed.Present)
	assert.False(t, record.Clouds.Present)
	assert.False(t, record.Pressure.Present)
	assert.Empty(t, record.Country)
}

func TestClient_NetworkError(t *testing.T) {
	client, server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.ByCity(context.Background(), "Madrid")

	assert.Equal(t, domain.NetworkError, domain.KindOf(err))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, &http.Client{Timeout: 50 * time.Millisecond}, zap.NewNop())

	_, err := client.ByCoordinates(context.Background(), domain.Coordinates{Latitude: 1, Longitude: 2})

	assert.Equal(t, domain.NetworkError, domain.KindOf(err))
}

func TestClient_InvalidInput(t *testing.T) {
	calls := 0

	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	_, err := client.ByCity(context.Background(), "   ")
	assert.Equal(t, domain.InvalidInput, domain.KindOf(err))

	_, err = client.ByCoordinates(context.Background(), domain.Coordinates{Latitude: 91})
	assert.Equal(t, domain.InvalidInput, domain.KindOf(err))

	assert.Zero(t, calls)
}
