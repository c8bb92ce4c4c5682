package terminal

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-now/internal/core/domain"
	"github.com/sean-rowe/weather-now/internal/core/ports"
	"github.com/sean-rowe/weather-now/internal/presentation"
)

// fakeSource stands in for the acquisition controller.
type fakeSource struct {
	mu       sync.Mutex
	fn       func(domain.AcquisitionState)
	searches []string
}

func (f *fakeSource) Subscribe(fn func(domain.AcquisitionState)) func() {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()

	fn(domain.Idle())

	return func() {}
}

func (f *fakeSource) Search(city string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searches = append(f.searches, city)

	return true
}

func (f *fakeSource) push(state domain.AcquisitionState) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()

	fn(state)
}

func newMessages(t *testing.T) *presentation.Messages {
	t.Helper()

	messages, err := presentation.NewMessages("en")
	require.NoError(t, err)

	return messages
}

func newTestTerminal(t *testing.T, input string) (*Terminal, *presentation.Presenter, *fakeSource, *bytes.Buffer) {
	source := &fakeSource{}
	presenter := presentation.NewPresenter(newMessages(t))
	presenter.Attach(source)

	out := &bytes.Buffer{}
	term := NewTerminal(presenter, strings.NewReader(input), out, zap.NewNop())

	return term, presenter, source, out
}

func TestTerminal_Run(t *testing.T) {
	term, presenter, source, out := newTestTerminal(t, "Madrid\n\n/unit\n/bogus\n/quit\nParis\n")

	require.NoError(t, term.Run(context.Background()))

	assert.Equal(t, []string{"Madrid"}, source.searches, "input after /quit is ignored")
	assert.Equal(t, domain.Fahrenheit, presenter.Unit())
	assert.Equal(t, "Madrid", presenter.Query())

	output := out.String()
	assert.Contains(t, output, "Type a city...")
	assert.Contains(t, output, "… Search for a city to see the weather.")
	assert.Contains(t, output, "? /unit /retry /clear /quit")
	assert.Contains(t, output, "/unit: Degrees °C / °F")
}

func TestTerminal_RunEndsAtEOF(t *testing.T) {
	term, _, source, _ := newTestTerminal(t, "Madrid\n/retry")

	require.NoError(t, term.Run(context.Background()))

	assert.Equal(t, []string{"Madrid", "Madrid"}, source.searches)
}

func TestTerminal_RunStopsOnCancel(t *testing.T) {
	source := &fakeSource{}
	presenter := presentation.NewPresenter(newMessages(t))
	presenter.Attach(source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never returns data mimics an idle stdin.
	term := NewTerminal(presenter, blockingReader{}, &bytes.Buffer{}, zap.NewNop())

	assert.NoError(t, term.Run(ctx))
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) {
	select {}
}

func TestTerminal_RendersLoadedFrames(t *testing.T) {
	term, presenter, source, out := newTestTerminal(t, "")
	unsubscribe := presenter.Subscribe(term.render)
	defer unsubscribe()

	source.push(domain.Loading())
	source.push(domain.Loaded(domain.WeatherRecord{
		Location:    "New York",
		Country:     "US",
		Temperature: 15,
		Description: "clear sky",
		Icon:        "01d",
		WindSpeed:   domain.Measured(3.1),
		Pressure:    domain.Measured(1012),
	}))

	output := out.String()
	assert.Contains(t, output, "… Loading weather data...")
	assert.Contains(t, output, "New York, US\n  15°C  clear sky\n")
	assert.Contains(t, output, "Wind speed: 3.1 m/s | Pressure: 1012 hPa\n")
	assert.NotContains(t, output, "Clouds:")
	assert.Contains(t, output, "https://openweathermap.org/img/wn/01d.png")

	out.Reset()
	presenter.ToggleUnit()
	assert.Contains(t, out.String(), "59°F")

	out.Reset()
	presenter.SetQuery("Mad")
	assert.Empty(t, out.String(), "query edits do not redraw")
}

func TestTerminal_PrintsNotices(t *testing.T) {
	_, presenter, _, out := newTestTerminal(t, "")

	presenter.Notify(ports.Notice{City: "Atlantis", Kind: domain.NotFound})

	assert.Equal(t, "! City not found, please check the name.\n", out.String())
}
