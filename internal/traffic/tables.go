package traffic

import (
	"github.com/i474232898/city-islands/internal/island"
)

// Hourly congestion curves in percent, indexed by local hour.
var (
	weekdayCurve = [24]float64{10, 8, 6, 5, 6, 12, 30, 65, 85, 70, 55, 50, 52, 50, 52, 58, 70, 88, 92, 75, 55, 40, 28, 16}
	weekendCurve = [24]float64{18, 14, 10, 8, 6, 6, 10, 18, 28, 38, 48, 55, 60, 62, 60, 58, 56, 55, 52, 48, 42, 36, 30, 24}
)

const (
	defaultCityFactor = 0.4
	rainMultiplier    = 1.3
	maxRouteDelayMin  = 45
)

var cityFactors = map[string]float64{
	"istanbul": 1.0,
	"ankara":   0.75,
	"izmir":    0.7,
	"bursa":    0.6,
	"kocaeli":  0.6,
	"antalya":  0.55,
}

var cityRoutes = map[string][]string{
	"istanbul": {"15 Temmuz Şehitler Köprüsü", "FSM Köprüsü", "E-5 Avcılar–Mecidiyeköy", "TEM Mahmutbey", "Kennedy Caddesi", "D-100 Kartal"},
	"ankara":   {"Eskişehir Yolu", "İstanbul Yolu", "Konya Yolu", "Kızılay–Ulus"},
	"izmir":    {"Altınyol", "Çevre Yolu Bornova", "Mürselpaşa Bulvarı", "İnönü Caddesi"},
	"bursa":    {"Ankara Yolu", "İzmir Yolu", "Mudanya Yolu"},
	"kocaeli":  {"D-100 İzmit", "TEM Kocaeli", "Körfez Geçişi"},
	"antalya":  {"Konyaaltı Caddesi", "D-400 Lara", "100. Yıl Bulvarı"},
}

var defaultRoutes = []string{"Şehir Merkezi", "Ana Arter", "Çevre Yolu"}

// MonitoringPoint is a road segment queried by the real-traffic adapter.
type MonitoringPoint struct {
	Name       string
	Coordinate island.Coordinate
}

var monitoringPoints = map[string][]MonitoringPoint{
	"istanbul": {
		{Name: "15 Temmuz Şehitler Köprüsü", Coordinate: island.Coordinate{Lat: 41.0451, Lon: 29.0340}},
		{Name: "FSM Köprüsü", Coordinate: island.Coordinate{Lat: 41.0911, Lon: 29.0610}},
		{Name: "E-5 Avcılar", Coordinate: island.Coordinate{Lat: 40.9800, Lon: 28.7200}},
		{Name: "TEM Mahmutbey", Coordinate: island.Coordinate{Lat: 41.0550, Lon: 28.8280}},
		{Name: "Kennedy Caddesi", Coordinate: island.Coordinate{Lat: 41.0000, Lon: 28.9750}},
		{Name: "D-100 Kartal", Coordinate: island.Coordinate{Lat: 40.8950, Lon: 29.1900}},
		{Name: "Kadıköy Rıhtım", Coordinate: island.Coordinate{Lat: 40.9920, Lon: 29.0230}},
	},
	"ankara": {
		{Name: "Eskişehir Yolu", Coordinate: island.Coordinate{Lat: 39.9080, Lon: 32.7600}},
		{Name: "Kızılay", Coordinate: island.Coordinate{Lat: 39.9208, Lon: 32.8541}},
		{Name: "Konya Yolu", Coordinate: island.Coordinate{Lat: 39.8700, Lon: 32.8300}},
	},
	"izmir": {
		{Name: "Altınyol", Coordinate: island.Coordinate{Lat: 38.4500, Lon: 27.1700}},
		{Name: "Çevre Yolu Bornova", Coordinate: island.Coordinate{Lat: 38.4600, Lon: 27.2300}},
		{Name: "Mürselpaşa Bulvarı", Coordinate: island.Coordinate{Lat: 38.4330, Lon: 27.1550}},
	},
}

func cityFactor(city string) float64 {
	if f, ok := cityFactors[island.NormalizeKey(city)]; ok {
		return f
	}
	return defaultCityFactor
}

func routesFor(city string) []string {
	if r, ok := cityRoutes[island.NormalizeKey(city)]; ok {
		return r
	}
	return defaultRoutes
}

// HasMonitoring reports whether city has registered monitoring points.
// Matching ignores case and Turkish diacritics.
func HasMonitoring(city string) bool {
	_, ok := monitoringPoints[island.NormalizeKey(city)]
	return ok
}

// MonitoringPoints returns a copy of the monitoring points of city.
func MonitoringPoints(city string) []MonitoringPoint {
	return append([]MonitoringPoint(nil), monitoringPoints[island.NormalizeKey(city)]...)
}
