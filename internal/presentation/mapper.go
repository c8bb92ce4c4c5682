// Package presentation derives what the user sees from the acquisition state.
package presentation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/sean-rowe/weather-now/internal/core/domain"
)

// IconURLTemplate turns a provider icon identifier into an image URL.
const IconURLTemplate = "https://openweathermap.org/img/wn/%s.png"

// ViewModel is the rendered form of one weather record.
type ViewModel struct {
	Location        string  `json:"location"`
	Temperature     float64 `json:"temperature"`
	TemperatureText string  `json:"temperatureText"`
	Unit            string  `json:"unit"`
	Description     string  `json:"description"`
	IconURL         string  `json:"iconUrl"`
	WindSpeed       string  `json:"windSpeed"`
	Clouds          string  `json:"clouds"`
	Pressure        string  `json:"pressure"`
}

// Map converts a record into a ViewModel for the given unit. It never
// modifies the record; absent measurements render as empty strings.
func Map(record domain.WeatherRecord, unit domain.UnitPreference) ViewModel {
	temperature := record.Temperature

	if unit == domain.Fahrenheit {
		temperature = domain.CelsiusToFahrenheit(record.Temperature)
	}

	location := record.Location

	if record.Country != "" {
		location += ", " + record.Country
	}

	vm := ViewModel{
		Location:        location,
		Temperature:     temperature,
		TemperatureText: formatNumber(temperature) + unit.String(),
		Unit:            unit.String(),
		Description:     record.Description,
		WindSpeed:       formatReading(record.WindSpeed, " m/s"),
		Clouds:          formatReading(record.Clouds, "%"),
		Pressure:        formatReading(record.Pressure, " hPa"),
	}

	if record.Icon != "" {
		vm.IconURL = fmt.Sprintf(IconURLTemplate, record.Icon)
	}

	return vm
}

func formatReading(r domain.Reading, suffix string) string {
	if !r.Present {
		return ""
	}

	return formatNumber(r.Value) + suffix
}

// formatNumber rounds to two decimals and drops trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
