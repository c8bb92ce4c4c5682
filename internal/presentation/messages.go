package presentation

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

// Message keys. The English text doubles as the key.
const (
	msgIdle         = "Search for a city to see the weather."
	msgLoading      = "Loading weather data..."
	msgGeoDenied    = "Please allow location access to see the weather, or search for a city."
	msgCityNotFound = "City not found, please check the name."
	msgPrompt       = "Type a city..."
	msgWind         = "Wind speed"
	msgClouds       = "Clouds"
	msgPressure     = "Pressure"
	msgUnitToggle   = "Degrees °C / °F"
)

var translations = map[language.Tag]map[string]string{
	language.Spanish: {
		msgIdle:         "Buscá una ciudad para ver el clima.",
		msgLoading:      "Cargando datos del clima...",
		msgGeoDenied:    "Por favor, permití la ubicación para ver el clima o buscá una ciudad.",
		msgCityNotFound: "No se encontró la ciudad, por favor verificá el nombre.",
		msgPrompt:       "Escribí una ciudad...",
		msgWind:         "Velocidad del viento",
		msgClouds:       "Nubes",
		msgPressure:     "Presión",
		msgUnitToggle:   "Grados °C / °F",
	},
}

var supported = []language.Tag{language.English, language.Spanish}

// Messages renders user-facing text in one locale.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMessages picks the closest supported locale for tag, e.g. "es-AR" → Spanish.
// Unknown or empty tags fall back to English.
func NewMessages(locale string) (*Messages, error) {
	builder, err := buildCatalog(translations)
	if err != nil {
		return nil, err
	}

	tag := language.English

	if requested, err := language.Parse(locale); err == nil {
		_, index, confidence := language.NewMatcher(supported).Match(requested)

		if confidence != language.No {
			tag = supported[index]
		}
	}

	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}, nil
}

func buildCatalog(entries map[language.Tag]map[string]string) (*catalog.Builder, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))

	for tag, texts := range entries {
		for key, text := range texts {
			if err := builder.SetString(tag, key, text); err != nil {
				return nil, fmt.Errorf("catalog %s %q: %w", tag, key, err)
			}
		}
	}

	return builder, nil
}

// Language returns the selected locale.
func (m *Messages) Language() language.Tag {
	return m.tag
}

func (m *Messages) text(key string) string {
	return m.printer.Sprintf(key)
}

// Status returns the status line for a non-loaded phase.
func (m *Messages) Status(phase domain.Phase) string {
	switch phase {
	case domain.PhaseLoading:
		return m.text(msgLoading)
	case domain.PhaseGeoDenied:
		return m.text(msgGeoDenied)
	case domain.PhaseIdle:
		return m.text(msgIdle)
	default:
		return ""
	}
}

// NoticeText returns the text shown when a city search fails.
func (m *Messages) NoticeText() string {
	return m.text(msgCityNotFound)
}

// Prompt returns the search field placeholder.
func (m *Messages) Prompt() string {
	return m.text(msgPrompt)
}

// Labels returns the measurement labels in display order: wind, clouds, pressure.
func (m *Messages) Labels() (wind, clouds, pressure string) {
	return m.text(msgWind), m.text(msgClouds), m.text(msgPressure)
}

// UnitToggle returns the caption of the unit toggle control.
func (m *Messages) UnitToggle() string {
	return m.text(msgUnitToggle)
}
