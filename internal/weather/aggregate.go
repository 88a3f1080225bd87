package weather

import "time"

// AggregateReadings combines multiple provider readings into a single WeatherSnapshot.
// Numeric fields are averaged; conditions are selected by majority, ties going to the
// condition reported first.
func AggregateReadings(loc Location, readings []ProviderReading, now time.Time) WeatherSnapshot {
	if len(readings) == 0 {
		return WeatherSnapshot{
			Location:  loc,
			Timestamp: now.UTC(),
			Condition: ConditionUnknown,
		}
	}

	var (
		sumTemp     float64
		sumHumidity float64
		sumWind     float64
		sumPressure float64
		sumPrecip   float64
		sumSnow     float64
		sumCloud    float64
	)

	var dailyPrecip, dailySnow dailyMean

	conditionCounts := make(map[Condition]int)
	var conditionOrder []Condition
	providers := make([]ProviderContribution, 0, len(readings))
	var newestTS time.Time

	for _, r := range readings {
		sumTemp += r.TemperatureC
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedMS
		sumPressure += r.PressureHpa
		sumPrecip += r.PrecipMm
		sumSnow += r.SnowCm
		sumCloud += r.CloudPct
		dailyPrecip.add(r.DailyPrecipMm)
		dailySnow.add(r.DailySnowCm)

		if conditionCounts[r.Condition] == 0 {
			conditionOrder = append(conditionOrder, r.Condition)
		}
		conditionCounts[r.Condition]++

		if r.Timestamp.After(newestTS) {
			newestTS = r.Timestamp
		}

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			Timestamp:    r.Timestamp,
		})
	}

	n := float64(len(readings))

	bestCond := ConditionUnknown
	bestCount := 0
	for _, cond := range conditionOrder {
		if count := conditionCounts[cond]; count > bestCount {
			bestCount = count
			bestCond = cond
		}
	}

	if newestTS.IsZero() {
		newestTS = now
	}

	return WeatherSnapshot{
		Location:      loc,
		Timestamp:     newestTS.UTC(),
		Temperature:   sumTemp / n,
		Humidity:      sumHumidity / n,
		WindSpeed:     sumWind / n,
		Pressure:      sumPressure / n,
		PrecipMM:      sumPrecip / n,
		SnowCM:        sumSnow / n,
		CloudCover:    sumCloud / n,
		Condition:     bestCond,
		DailyPrecipMM: dailyPrecip.value(),
		DailySnowCM:   dailySnow.value(),
		Providers:     providers,
	}
}

type dailyMean struct {
	sum float64
	n   int
}

func (m *dailyMean) add(v *float64) {
	if v == nil {
		return
	}
	m.sum += *v
	m.n++
}

func (m dailyMean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}
