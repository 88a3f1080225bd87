package weather

import (
	"time"

	"github.com/i474232898/city-islands/internal/island"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Wet reports whether the condition implies precipitation on the roads.
func (c Condition) Wet() bool {
	return c == ConditionRain || c == ConditionStorm || c == ConditionSnow
}

// Location represents a logical place for which we track weather.
// City/Country must be provided; coordinates are used by providers that accept them.
type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// ProfileLocation returns the tracked location of a city profile.
func ProfileLocation(p island.CityProfile) Location {
	lat, lon := p.Coordinate.Lat, p.Coordinate.Lon
	return Location{City: p.Name, Country: p.CountryCode, Lat: &lat, Lon: &lon}
}

// WeatherSnapshot is the normalized, aggregated weather view at a point in time.
type WeatherSnapshot struct {
	Location    Location  `json:"location"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Temperature float64   `json:"temperatureC"`
	Humidity    float64   `json:"humidityPercent"`
	WindSpeed   float64   `json:"windSpeed"` // m/s
	Pressure    float64   `json:"pressureHpa"`
	PrecipMM    float64   `json:"precipMm"`
	SnowCM      float64   `json:"snowCm"`
	CloudCover  float64   `json:"cloudCoverPercent"`
	Condition   Condition `json:"condition"`

	// Day totals averaged over the providers that report them.
	DailyPrecipMM *float64 `json:"dailyPrecipMm,omitempty"`
	DailySnowCM   *float64 `json:"dailySnowCm,omitempty"`

	// Providers contributing to this snapshot.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// WindKph returns the wind speed in km/h.
func (s WeatherSnapshot) WindKph() float64 {
	return s.WindSpeed * 3.6
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	Timestamp    time.Time `json:"timestamp"`
}
