// Package geo resolves the hub that serves a location for a given capability.
package geo

import (
	"math"
	"slices"

	"github.com/i474232898/city-islands/internal/island"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between a and b in kilometres.
func Distance(a, b island.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Hub is a city-level node providing capabilities to locations within its radius.
type Hub struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Coordinate   island.Coordinate   `json:"coordinate"`
	Capabilities []island.Capability `json:"capabilities"`
	RadiusKm     float64             `json:"radiusKm"`
}

// Supports reports whether the hub declares capability c.
func (h Hub) Supports(c island.Capability) bool {
	return slices.Contains(h.Capabilities, c)
}

// Match is a resolved hub together with its distance from the query point.
type Match struct {
	Hub        Hub     `json:"hub"`
	DistanceKm float64 `json:"distanceKm"`
}

// Resolver answers nearest-hub queries over an immutable registry.
type Resolver struct {
	hubs []Hub
}

// NewResolver copies hubs into a new resolver.
func NewResolver(hubs []Hub) *Resolver {
	r := &Resolver{hubs: make([]Hub, 0, len(hubs))}
	for _, h := range hubs {
		h.Capabilities = slices.Clone(h.Capabilities)
		r.hubs = append(r.hubs, h)
	}
	return r
}

// Hubs returns a copy of the registry.
func (r *Resolver) Hubs() []Hub {
	out := make([]Hub, len(r.hubs))
	for i, h := range r.hubs {
		h.Capabilities = slices.Clone(h.Capabilities)
		out[i] = h
	}
	return out
}

// Hub looks up a hub by id.
func (r *Resolver) Hub(id string) (Hub, bool) {
	for _, h := range r.hubs {
		if h.ID == id {
			h.Capabilities = slices.Clone(h.Capabilities)
			return h, true
		}
	}
	return Hub{}, false
}

// Resolve returns the nearest hub that supports c and whose radius covers p.
// The radius boundary is inclusive.
func (r *Resolver) Resolve(p island.Coordinate, c island.Capability) (Match, bool) {
	var (
		best  Match
		found bool
	)
	for _, h := range r.hubs {
		if !h.Supports(c) {
			continue
		}
		d := Distance(p, h.Coordinate)
		if d > h.RadiusKm {
			continue
		}
		if !found || d < best.DistanceKm {
			best = Match{Hub: h, DistanceKm: d}
			found = true
		}
	}
	if found {
		best.Hub.Capabilities = slices.Clone(best.Hub.Capabilities)
	}
	return best, found
}

// ResolveAll resolves every known capability for p; capabilities without a hub are absent.
func (r *Resolver) ResolveAll(p island.Coordinate) map[island.Capability]Match {
	out := make(map[island.Capability]Match)
	for _, c := range island.Capabilities() {
		if m, ok := r.Resolve(p, c); ok {
			out[c] = m
		}
	}
	return out
}
