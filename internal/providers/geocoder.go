package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/pipeline"
)

// ErrPlaceNotFound is returned when the geocoder has no result.
var ErrPlaceNotFound = errors.New("place not found")

// GoogleGeocoder resolves place names to coordinates.
type GoogleGeocoder struct {
	apiKey string
	// lookup is swapped in tests.
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// geocoder keeps its API key in a package variable.
var geocoderMu sync.Mutex

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	g := &GoogleGeocoder{apiKey: apiKey}
	g.lookup = func(a geocoder.Address) (geocoder.Location, error) {
		geocoderMu.Lock()
		defer geocoderMu.Unlock()
		geocoder.ApiKey = g.apiKey
		return geocoder.Geocoding(a)
	}
	return g
}

// Configured reports whether an API key is present.
func (g *GoogleGeocoder) Configured() bool {
	return g.apiKey != ""
}

// Geocode returns the coordinate of city in country.
func (g *GoogleGeocoder) Geocode(ctx context.Context, city, country string) (island.Coordinate, error) {
	if !g.Configured() {
		return island.Coordinate{}, pipeline.ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return island.Coordinate{}, err
	}

	loc, err := g.lookup(geocoder.Address{City: city, Country: country})
	if err != nil {
		return island.Coordinate{}, fmt.Errorf("geocode %q: %w", city, err)
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return island.Coordinate{}, fmt.Errorf("%w: %s", ErrPlaceNotFound, city)
	}
	return island.Coordinate{Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
