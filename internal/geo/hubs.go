package geo

import "github.com/i474232898/city-islands/internal/island"

var (
	marine  = island.CapabilityMarine
	traffic = island.CapabilityTraffic
	ski     = island.CapabilitySki
)

var defaultHubs = []Hub{
	{ID: "istanbul", Name: "İstanbul", Coordinate: island.Coordinate{Lat: 41.0082, Lon: 28.9784}, Capabilities: []island.Capability{marine, traffic}, RadiusKm: 150},
	{ID: "ankara", Name: "Ankara", Coordinate: island.Coordinate{Lat: 39.9334, Lon: 32.8597}, Capabilities: []island.Capability{traffic}, RadiusKm: 100},
	{ID: "izmir", Name: "İzmir", Coordinate: island.Coordinate{Lat: 38.4237, Lon: 27.1428}, Capabilities: []island.Capability{marine, traffic}, RadiusKm: 120},
	{ID: "antalya", Name: "Antalya", Coordinate: island.Coordinate{Lat: 36.8969, Lon: 30.7133}, Capabilities: []island.Capability{marine, traffic}, RadiusKm: 150},
	{ID: "bursa", Name: "Bursa", Coordinate: island.Coordinate{Lat: 40.1885, Lon: 29.0610}, Capabilities: []island.Capability{ski, traffic}, RadiusKm: 80},
	{ID: "trabzon", Name: "Trabzon", Coordinate: island.Coordinate{Lat: 41.0027, Lon: 39.7168}, Capabilities: []island.Capability{marine}, RadiusKm: 120},
	{ID: "erzurum", Name: "Erzurum", Coordinate: island.Coordinate{Lat: 39.9043, Lon: 41.2679}, Capabilities: []island.Capability{ski}, RadiusKm: 100},
	{ID: "sarikamis", Name: "Sarıkamış", Coordinate: island.Coordinate{Lat: 40.3316, Lon: 42.5910}, Capabilities: []island.Capability{ski}, RadiusKm: 80},
	{ID: "bolu", Name: "Bolu", Coordinate: island.Coordinate{Lat: 40.7350, Lon: 31.6061}, Capabilities: []island.Capability{ski}, RadiusKm: 70},
	{ID: "kayseri", Name: "Kayseri", Coordinate: island.Coordinate{Lat: 38.7312, Lon: 35.4787}, Capabilities: []island.Capability{ski}, RadiusKm: 80},
}

// DefaultHubs returns a fresh copy of the built-in hub registry.
func DefaultHubs() []Hub {
	return NewResolver(defaultHubs).Hubs()
}
