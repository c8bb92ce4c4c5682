package presentation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/core/ports"
	"github.com/sean-rowe/weather-now/internal/core/services"
)

var newYork = domain.WeatherRecord{
	Location:    "New York",
	Country:     "US",
	Temperature: 15,
	Description: "clear sky",
	Icon:        "01d",
	WindSpeed:   domain.Measured(3.1),
	Clouds:      domain.Measured(10),
	Pressure:    domain.Measured(1012),
}

func mustMessages(t *testing.T, locale string) *Messages {
	t.Helper()

	m, err := NewMessages(locale)
	require.NoError(t, err)

	return m
}

func TestMap(t *testing.T) {
	celsius := Map(newYork, domain.Celsius)

	assert.Equal(t, ViewModel{
		Location:        "New York, US",
		Temperature:     15,
		TemperatureText: "15°C",
		Unit:            "°C",
		Description:     "clear sky",
		IconURL:         "https://openweathermap.org/img/wn/01d.png",
		WindSpeed:       "3.1 m/s",
		Clouds:          "10%",
		Pressure:        "1012 hPa",
	}, celsius)

	fahrenheit := Map(newYork, domain.Fahrenheit)

	assert.Equal(t, 59.0, fahrenheit.Temperature)
	assert.Equal(t, "59°F", fahrenheit.TemperatureText)
	assert.Equal(t, 15.0, newYork.Temperature, "mapping never touches the stored value")
}

func TestMap_TemperatureConversion(t *testing.T) {
	for _, c := range []float64{-40, -17.5, 0, 0.1, 15, 21.37, 36.6, 100} {
		record := domain.WeatherRecord{Location: "X", Temperature: c}

		assert.Equal(t, c, Map(record, domain.Celsius).Temperature)
		assert.InDelta(t, c*9/5+32, Map(record, domain.Fahrenheit).Temperature, 1e-9)
	}
}

func TestMap_PartialRecord(t *testing.T) {
	vm := Map(domain.WeatherRecord{Location: "Reykjavik", Temperature: -2.456}, domain.Celsius)

	assert.Equal(t, "Reykjavik", vm.Location)
	assert.Equal(t, "-2.46°C", vm.TemperatureText)
	assert.Empty(t, vm.WindSpeed)
	assert.Empty(t, vm.Clouds)
	assert.Empty(t, vm.Pressure)
	assert.Empty(t, vm.IconURL)
}

func TestMessages_Locale(t *testing.T) {
	assert.Equal(t, language.English, mustMessages(t, "").Language())
	assert.Equal(t, language.English, mustMessages(t, "not a tag!").Language())
	assert.Equal(t, language.Spanish, mustMessages(t, "es-AR").Language())

	es := mustMessages(t, "es")
	assert.Equal(t, "Cargando datos del clima...", es.Status(domain.PhaseLoading))
	assert.Equal(t, "No se encontró la ciudad, por favor verificá el nombre.", es.NoticeText())

	en := mustMessages(t, "en")
	assert.Equal(t, "Loading weather data...", en.Status(domain.PhaseLoading))
	assert.Equal(t, "City not found, please check the name.", en.NoticeText())
	assert.Empty(t, en.Status(domain.PhaseLoaded))
	assert.Equal(t, "Degrees °C / °F", en.UnitToggle())
	assert.Equal(t, "Grados °C / °F", es.UnitToggle())
}

func TestMessages_IdleIsNotALoadingText(t *testing.T) {
	// Idle can be restored after a failed search outlives a discarded
	// geolocation, so it must read as a resting state.
	for _, locale := range []string{"en", "es"} {
		m := mustMessages(t, locale)

		assert.NotEqual(t, m.Status(domain.PhaseLoading), m.Status(domain.PhaseIdle), locale)
		assert.NotContains(t, m.Status(domain.PhaseIdle), "Loading", locale)
		assert.NotContains(t, m.Status(domain.PhaseIdle), "Cargando", locale)
	}

	assert.Equal(t, "Search for a city to see the weather.", mustMessages(t, "en").Status(domain.PhaseIdle))
}

// fakeSource is a minimal in-test acquisition state source.
type fakeSource struct {
	state    *services.Observable[domain.AcquisitionState]
	searches []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{state: services.NewObservable(domain.Idle())}
}

func (f *fakeSource) Subscribe(fn func(domain.AcquisitionState)) func() {
	return f.state.Subscribe(fn)
}

func (f *fakeSource) Search(city string) bool {
	f.searches = append(f.searches, city)
	return true
}

func TestPresenter_FollowsStateAndUnit(t *testing.T) {
	source := newFakeSource()
	p := NewPresenter(mustMessages(t, "en"))
	p.Attach(source)

	var frames []Screen

	p.Subscribe(func(s Screen) { frames = append(frames, s) })

	assert.Equal(t, "idle", p.Screen().Phase)
	assert.Equal(t, "Search for a city to see the weather.", p.Screen().Status)

	source.state.Set(domain.Loading())
	assert.Equal(t, "Loading weather data...", p.Screen().Status)

	source.state.Set(domain.Loaded(newYork))
	require.NotNil(t, p.Screen().Weather)
	assert.Equal(t, "15°C", p.Screen().Weather.TemperatureText)

	assert.Equal(t, domain.Fahrenheit, p.ToggleUnit())
	assert.Equal(t, "59°F", p.Screen().Weather.TemperatureText)

	// a refresh keeps the unit
	source.state.Set(domain.Loaded(newYork))
	assert.Equal(t, "59°F", p.Screen().Weather.TemperatureText)

	source.state.Set(domain.GeoDenied())
	assert.Nil(t, p.Screen().Weather)
	assert.Equal(t, "°F", p.Screen().Unit)

	assert.Len(t, frames, 6)

	p.Detach()
	source.state.Set(domain.Loaded(newYork))
	assert.Equal(t, "geo_denied", p.Screen().Phase)
}

func TestPresenter_QueryIsRetained(t *testing.T) {
	source := newFakeSource()
	p := NewPresenter(mustMessages(t, "en"))

	assert.False(t, p.Submit(), "not attached")

	p.Attach(source)

	assert.False(t, p.Submit(), "empty query")

	p.SetQuery(" Madrid ")
	assert.True(t, p.Submit())
	assert.True(t, p.Submit())

	assert.Equal(t, []string{"Madrid", "Madrid"}, source.searches)
	assert.Equal(t, " Madrid ", p.Query())

	p.ClearQuery()
	assert.Empty(t, p.Query())
	assert.False(t, p.Submit())
}

func TestPresenter_Notify(t *testing.T) {
	p := NewPresenter(mustMessages(t, "en"))

	var got []string

	p.OnNotice(func(text string) { got = append(got, text) })
	p.Notify(ports.Notice{City: "Atlantis", Kind: domain.NotFound})

	assert.Equal(t, []string{"City not found, please check the name."}, got)
}
