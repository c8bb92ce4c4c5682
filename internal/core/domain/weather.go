// Package domain contains the core entities of the weather client.
// It defines the weather snapshot, the acquisition states the client can be
// in and the failure taxonomy, independent of transport and UI concerns.
package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Coordinates represent a geographic location using latitude and longitude.
type Coordinates struct {
	// Latitude specifies the north-south position (-90 to 90 degrees)
	Latitude float64

	// Longitude specifies the east-west position (-180 to 180 degrees)
	Longitude float64
}

// Validate checks if the coordinates are within valid geographic bounds.
// Latitude must be between -90 and 90 degrees (south to north poles).
// Longitude must be between -180 and 180 degrees (international date line).
// NaN is never in range.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", c.Latitude)
	}

	if math.IsNaN(c.Longitude) || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", c.Longitude)
	}

	return nil
}

// Reading is an optional measurement. Present is false when the backend
// omitted the value, which is distinct from a genuine zero.
type Reading struct {
	Value   float64
	Present bool
}

// Measured returns a present Reading holding v.
func Measured(v float64) Reading {
	return Reading{Value: v, Present: true}
}

// WeatherRecord is an immutable snapshot of one successful weather query.
// Temperature is always stored in Celsius; unit preference only affects display.
type WeatherRecord struct {
	// ID uniquely identifies this snapshot
	ID uuid.UUID

	// Location is the resolved place name, e.g. "New York"
	Location string

	// Country is the ISO country code reported by the backend, may be empty
	Country string

	// Temperature in degrees Celsius
	Temperature float64

	// ConditionCode is the provider's numeric weather condition
	ConditionCode int

	// Description is a human-readable condition, e.g. "clear sky"
	Description string

	// Icon is the provider icon identifier, e.g. "01d"
	Icon string

	// WindSpeed in metres per second
	WindSpeed Reading

	// Clouds is the cloud cover percentage (0-100)
	Clouds Reading

	// Pressure in hectopascals
	Pressure Reading

	// FetchedAt records when this snapshot was retrieved
	FetchedAt time.Time
}

// UnitPreference selects the display unit for temperatures.
type UnitPreference int

const (
	// Celsius displays the stored value unchanged
	Celsius UnitPreference = iota

	// Fahrenheit displays stored*9/5+32
	Fahrenheit
)

// String returns the unit symbol.
func (u UnitPreference) String() string {
	if u == Fahrenheit {
		return "°F"
	}

	return "°C"
}

// Toggle returns the other unit.
func (u UnitPreference) Toggle() UnitPreference {
	if u == Fahrenheit {
		return Celsius
	}

	return Fahrenheit
}

// CelsiusToFahrenheit converts a Celsius temperature to Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
