package island

import (
	"errors"
	"time"
)

// Capability is a data service a hub can provide to nearby cities.
type Capability string

const (
	CapabilityMarine  Capability = "marine"
	CapabilityTraffic Capability = "traffic"
	CapabilitySki     Capability = "ski"
)

// Capabilities lists every known capability in display order.
func Capabilities() []Capability {
	return []Capability{CapabilityTraffic, CapabilityMarine, CapabilitySki}
}

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CityProfile is a selectable demo city.
type CityProfile struct {
	Key         string     `json:"key"`
	Name        string     `json:"name"`
	Tags        []string   `json:"tags"`
	Coordinate  Coordinate `json:"coordinate"`
	CountryCode string     `json:"country"`
}

// CongestionLevel is the ordinal traffic intensity.
type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "low"
	CongestionMedium CongestionLevel = "medium"
	CongestionHigh   CongestionLevel = "high"
	CongestionSevere CongestionLevel = "severe"
)

// RouteStatus classifies a single route by its delay.
type RouteStatus string

const (
	RouteNormal    RouteStatus = "normal"
	RouteSlow      RouteStatus = "slow"
	RouteCongested RouteStatus = "congested"
)

// RouteDelay is the delay on one named route.
type RouteDelay struct {
	Name         string      `json:"name"`
	DelayMinutes int         `json:"delayMinutes"`
	Status       RouteStatus `json:"status"`
}

// TrafficEstimate is the traffic widget record.
type TrafficEstimate struct {
	City              string          `json:"city"`
	Level             CongestionLevel `json:"congestionLevel"`
	CongestionPercent int             `json:"congestionPercent"`
	Routes            []RouteDelay    `json:"routes"`
	Narrative         string          `json:"narrative"`
	LastUpdated       time.Time       `json:"lastUpdated"`
}

// AvalancheRisk is the ordinal avalanche danger.
type AvalancheRisk string

const (
	AvalancheLow          AvalancheRisk = "low"
	AvalancheModerate     AvalancheRisk = "moderate"
	AvalancheConsiderable AvalancheRisk = "considerable"
	AvalancheHigh         AvalancheRisk = "high"
)

// SnowCondition is the categorical piste surface.
type SnowCondition string

const (
	SnowClosed SnowCondition = "closed"
	SnowPowder SnowCondition = "powder"
	SnowPacked SnowCondition = "packed"
	SnowWet    SnowCondition = "wet"
	SnowIcy    SnowCondition = "icy"
)

// Visibility is the categorical on-mountain visibility.
type Visibility string

const (
	VisibilityGood     Visibility = "good"
	VisibilityModerate Visibility = "moderate"
	VisibilityPoor     Visibility = "poor"
)

// SkiEstimate is the ski widget record.
type SkiEstimate struct {
	Resort      string        `json:"resort"`
	SnowDepthCm int           `json:"snowDepth"`
	FreshSnowCm float64       `json:"freshSnow24h"`
	BaseTempC   float64       `json:"baseTemp"`
	SummitTempC float64       `json:"summitTemp"`
	LiftsOpen   int           `json:"liftsOpen"`
	LiftsTotal  int           `json:"liftsTotal"`
	Avalanche   AvalancheRisk `json:"avalancheRisk"`
	Condition   SnowCondition `json:"snowCondition"`
	Visibility  Visibility    `json:"visibility"`
	InSeason    bool          `json:"inSeason"`
	Narrative   string        `json:"narrative"`
	LastUpdated time.Time     `json:"lastUpdated"`
}

// SeaState is the categorical sea surface roughness.
type SeaState string

const (
	SeaCalm     SeaState = "calm"
	SeaSlight   SeaState = "slight"
	SeaModerate SeaState = "moderate"
	SeaRough    SeaState = "rough"
)

// MarineEstimate is the marine widget record.
type MarineEstimate struct {
	Hub           string    `json:"hub"`
	WaveHeightM   float64   `json:"waveHeight"`
	WavePeriodS   float64   `json:"wavePeriod"`
	WaveDirection float64   `json:"waveDirection"`
	SeaTempC      float64   `json:"seaTemperature"`
	WindKph       float64   `json:"windSpeed"`
	State         SeaState  `json:"seaState"`
	Narrative     string    `json:"narrative"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// SummaryEstimate is the regional summary widget record.
type SummaryEstimate struct {
	City         string    `json:"city"`
	TemperatureC float64   `json:"temperature"`
	Condition    string    `json:"condition"`
	WindKph      float64   `json:"windSpeed"`
	PrecipMm     float64   `json:"precipitation"`
	CloudPct     float64   `json:"cloudCover"`
	TrendC       float64   `json:"temperatureTrend"`
	Providers    []string  `json:"providers"`
	Hubs         []string  `json:"hubs"`
	Narrative    string    `json:"narrative"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// Record is implemented by every widget record.
type Record interface {
	Stamp() (narrative string, lastUpdated time.Time)
}

func (t *TrafficEstimate) Stamp() (string, time.Time) { return t.Narrative, t.LastUpdated }
func (s *SkiEstimate) Stamp() (string, time.Time)     { return s.Narrative, s.LastUpdated }
func (m *MarineEstimate) Stamp() (string, time.Time)  { return m.Narrative, m.LastUpdated }
func (s *SummaryEstimate) Stamp() (string, time.Time) { return s.Narrative, s.LastUpdated }

var (
	ErrMissingNarrative = errors.New("record has no narrative")
	ErrMissingTimestamp = errors.New("record has no lastUpdated timestamp")
)

// Validate checks that a record can be rendered.
func Validate(r Record) error {
	narrative, ts := r.Stamp()
	if narrative == "" {
		return ErrMissingNarrative
	}
	if ts.IsZero() {
		return ErrMissingTimestamp
	}
	return nil
}
