package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregateReadings_AveragesAndMajority(t *testing.T) {
	loc := Location{City: "İzmir", Country: "TR"}
	t1 := now.Add(-5 * time.Minute)

	snap := AggregateReadings(loc, []ProviderReading{
		{ProviderName: "a", Timestamp: t1, TemperatureC: 10, WindSpeedMS: 4, CloudPct: 80, PrecipMm: 2, Condition: ConditionRain},
		{ProviderName: "b", Timestamp: now, TemperatureC: 12, WindSpeedMS: 6, CloudPct: 60, PrecipMm: 0, Condition: ConditionCloudy},
		{ProviderName: "c", Timestamp: t1, TemperatureC: 14, WindSpeedMS: 5, CloudPct: 70, PrecipMm: 1, Condition: ConditionRain},
	}, now)

	assert.Equal(t, 12.0, snap.Temperature)
	assert.Equal(t, 5.0, snap.WindSpeed)
	assert.Equal(t, 70.0, snap.CloudCover)
	assert.Equal(t, 1.0, snap.PrecipMM)
	assert.Equal(t, ConditionRain, snap.Condition)
	assert.Equal(t, now, snap.Timestamp)
	assert.Len(t, snap.Providers, 3)
}

func TestAggregateReadings_DailyTotalsFromReportingProvidersOnly(t *testing.T) {
	four, six := 4.0, 6.0
	snap := AggregateReadings(Location{}, []ProviderReading{
		{PrecipMm: 0.5, DailyPrecipMm: &four, DailySnowCm: &six},
		{PrecipMm: 0.3},
		{PrecipMm: 0.1, DailyPrecipMm: &six},
	}, now)

	assert.InDelta(t, 0.3, snap.PrecipMM, 1e-9)
	if assert.NotNil(t, snap.DailyPrecipMM) {
		assert.Equal(t, 5.0, *snap.DailyPrecipMM)
	}
	if assert.NotNil(t, snap.DailySnowCM) {
		assert.Equal(t, 6.0, *snap.DailySnowCM)
	}

	snap = AggregateReadings(Location{}, []ProviderReading{{PrecipMm: 1}}, now)
	assert.Nil(t, snap.DailyPrecipMM)
	assert.Nil(t, snap.DailySnowCM)
}

func TestAggregateReadings_TieGoesToFirstReported(t *testing.T) {
	snap := AggregateReadings(Location{}, []ProviderReading{
		{Condition: ConditionSnow},
		{Condition: ConditionClear},
	}, now)
	assert.Equal(t, ConditionSnow, snap.Condition)
	assert.Equal(t, now, snap.Timestamp)
}

func TestAggregateReadings_Empty(t *testing.T) {
	snap := AggregateReadings(Location{City: "X"}, nil, now)
	assert.Equal(t, ConditionUnknown, snap.Condition)
	assert.Equal(t, now, snap.Timestamp)
}

func TestSummarize(t *testing.T) {
	latest := WeatherSnapshot{
		Temperature: -5,
		WindSpeed:   5,
		PrecipMM:    1.2,
		CloudCover:  40,
		Condition:   ConditionSnow,
		Providers:   []ProviderContribution{{ProviderName: "openmeteo"}},
	}
	history := []WeatherSnapshot{{Temperature: -2}, latest}

	got := Summarize("Erzurum", latest, history, []string{"Erzurum (kayak)"}, now)

	assert.Equal(t, 18.0, got.WindKph)
	assert.Equal(t, -3.0, got.TrendC)
	assert.Equal(t, []string{"openmeteo"}, got.Providers)
	assert.Equal(t,
		"Erzurum: -5°C, karlı. Rüzgar 18 km/s, yağış 1.2 mm. Sıcaklık son ölçümlere göre -3°C değişti. Hizmet veren merkezler: Erzurum (kayak).",
		got.Narrative)
	assert.Equal(t, now, got.LastUpdated)
}

func TestSummarize_NoHubsNoTrend(t *testing.T) {
	got := Summarize("Van", WeatherSnapshot{Temperature: 4, Condition: ConditionClear}, nil, nil, now)
	assert.Equal(t, "Van: 4°C, açık. Rüzgar 0 km/s. Bu bölgede ek modül yok.", got.Narrative)
}
