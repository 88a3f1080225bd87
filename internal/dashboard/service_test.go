package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-islands/internal/geo"
	"github.com/i474232898/city-islands/internal/island"
	"github.com/i474232898/city-islands/internal/marine"
	"github.com/i474232898/city-islands/internal/observability"
	"github.com/i474232898/city-islands/internal/pipeline"
	"github.com/i474232898/city-islands/internal/providers"
	"github.com/i474232898/city-islands/internal/weather"
)

var now = time.Date(2026, time.January, 15, 7, 0, 0, 0, time.UTC)

type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

// fakeWeather serves fixed snapshots. Cities listed in block wait on the
// channel before answering.
type fakeWeather struct {
	mu        sync.Mutex
	snapshots map[string]weather.WeatherSnapshot
	err       error
	block     map[string]chan struct{}
	entered   chan string
	calls     int
}

func (f *fakeWeather) Current(ctx context.Context, loc weather.Location, _ time.Duration) (weather.WeatherSnapshot, error) {
	f.mu.Lock()
	f.calls++
	gate := f.block[loc.City]
	snap, ok := f.snapshots[loc.City]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		f.entered <- loc.City
		<-gate
	}
	if err != nil {
		return weather.WeatherSnapshot{}, err
	}
	if !ok {
		snap = weather.WeatherSnapshot{Location: loc, Timestamp: now, Temperature: 10, Condition: weather.ConditionClear}
	}
	return snap, nil
}

func (f *fakeWeather) GetRange(loc weather.Location, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	return nil, errors.New("no history")
}

type fakeTraffic struct {
	mu    sync.Mutex
	est   *island.TrafficEstimate
	err   error
	panic bool
}

func (f *fakeTraffic) Fetch(_ context.Context, city string) (*island.TrafficEstimate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("flow decoder exploded")
	}
	return f.est, f.err
}

func (f *fakeTraffic) set(est *island.TrafficEstimate, err error, panics bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.est, f.err, f.panic = est, err, panics
}

type fakeMarine struct {
	obs marine.Observation
	err error
}

func (f fakeMarine) Observe(context.Context, island.Coordinate) (marine.Observation, error) {
	return f.obs, f.err
}

type fakeSki struct {
	day providers.SkiForecastDay
	err error
}

func (f fakeSki) Today(context.Context, int) (providers.SkiForecastDay, error) {
	return f.day, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(ws WeatherSource, opts ...Option) (*Service, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	base := []Option{
		WithClock(clockwork.NewFakeClockAt(now)),
		WithRandom(constSource(0.5)),
		WithLogger(discardLogger()),
		WithMetrics(m),
	}
	return NewService(island.DefaultDirectory(), geo.NewResolver(geo.DefaultHubs()), ws, append(base, opts...)...), m
}

func erzurumWeather() *fakeWeather {
	return &fakeWeather{snapshots: map[string]weather.WeatherSnapshot{
		"Erzurum": {
			Timestamp:   now,
			Temperature: -5,
			PrecipMM:    10,
			WindSpeed:   20 / 3.6,
			CloudCover:  40,
			Condition:   weather.ConditionSnow,
			Providers:   []weather.ProviderContribution{{ProviderName: "openmeteo", Timestamp: now}},
		},
	}}
}

func TestRefresh_ErzurumEndToEnd(t *testing.T) {
	svc, _ := newTestService(erzurumWeather())

	got, err := svc.Refresh(context.Background(), "Erzurum")
	require.NoError(t, err)
	assert.Equal(t, "erzurum", got.City.Key)
	require.Len(t, got.Widgets, len(Kinds()))

	skiW, ok := got.Widget(KindSki)
	require.True(t, ok)
	require.Equal(t, StatusOK, skiW.Status)
	assert.Equal(t, pipeline.StageHeuristic, skiW.Source)
	assert.Equal(t, "Erzurum", skiW.Hub)

	est, ok := skiW.Data.(*island.SkiEstimate)
	require.True(t, ok)
	assert.Equal(t, "Palandöken", est.Resort)
	assert.Equal(t, 288, est.SnowDepthCm)
	assert.Contains(t, est.Narrative, "Kar kalınlığı 288 cm")

	for _, kind := range []WidgetKind{KindTraffic, KindMarine} {
		w, _ := got.Widget(kind)
		assert.Equal(t, StatusInactive, w.Status, kind)
		assert.Nil(t, w.Data, kind)
	}

	summary, _ := got.Widget(KindSummary)
	require.Equal(t, StatusOK, summary.Status)
	sum := summary.Data.(*island.SummaryEstimate)
	assert.Equal(t, []string{"Erzurum"}, sum.Hubs)
	assert.Equal(t, []string{"openmeteo"}, sum.Providers)
	assert.Contains(t, sum.Narrative, "Hizmet veren merkezler: Erzurum.")
}

func TestRefresh_SkiHeuristicUsesDayTotals(t *testing.T) {
	ws := erzurumWeather()
	snap := ws.snapshots["Erzurum"]
	daily := snap.PrecipMM
	snap.PrecipMM = 0.4
	snap.DailyPrecipMM = &daily
	ws.snapshots["Erzurum"] = snap

	svc, _ := newTestService(ws)
	got, err := svc.Refresh(context.Background(), "erzurum")
	require.NoError(t, err)

	skiW, _ := got.Widget(KindSki)
	require.Equal(t, StatusOK, skiW.Status)
	assert.Equal(t, 288, skiW.Data.(*island.SkiEstimate).SnowDepthCm)
}

func TestRefresh_UnknownCity(t *testing.T) {
	svc, _ := newTestService(&fakeWeather{})

	_, err := svc.Refresh(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrUnknownCity)
}

func TestRefresh_RemoteStagesPreferred(t *testing.T) {
	live := &island.TrafficEstimate{City: "İstanbul", Level: island.CongestionHigh, CongestionPercent: 60, Narrative: "canlı", LastUpdated: now}
	svc, m := newTestService(&fakeWeather{},
		WithTrafficFeed(&fakeTraffic{est: live}),
		WithMarineFeed(fakeMarine{obs: marine.Observation{WaveHeightM: 1.4, WavePeriodS: 5, SeaTempC: 9}}),
	)

	got, err := svc.Refresh(context.Background(), "istanbul")
	require.NoError(t, err)

	tr, _ := got.Widget(KindTraffic)
	assert.Equal(t, StatusOK, tr.Status)
	assert.Equal(t, pipeline.StageRemote, tr.Source)
	assert.Same(t, live, tr.Data)

	mr, _ := got.Widget(KindMarine)
	require.Equal(t, StatusOK, mr.Status)
	assert.Equal(t, pipeline.StageRemote, mr.Source)
	assert.Equal(t, island.SeaModerate, mr.Data.(*island.MarineEstimate).State)

	sk, _ := got.Widget(KindSki)
	assert.Equal(t, StatusInactive, sk.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WidgetOutcomes.WithLabelValues("traffic", "remote")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshCycles))
}

func TestRefresh_RemoteFailureFallsBackToHeuristic(t *testing.T) {
	svc, _ := newTestService(&fakeWeather{},
		WithTrafficFeed(&fakeTraffic{err: errors.New("503")}),
		WithMarineFeed(fakeMarine{err: errors.New("timeout")}),
		WithSkiFeed(fakeSki{err: errors.New("proxy down")}),
	)

	got, err := svc.Refresh(context.Background(), "İzmir")
	require.NoError(t, err)

	for _, kind := range []WidgetKind{KindTraffic, KindMarine} {
		w, _ := got.Widget(kind)
		assert.Equal(t, StatusOK, w.Status, kind)
		assert.Equal(t, pipeline.StageHeuristic, w.Source, kind)
		assert.Equal(t, "İzmir", w.Hub, kind)
	}
}

func TestRefresh_SkiRemoteUsesForecast(t *testing.T) {
	snow := providers.SkiForecastDay{BaseTempC: -5, PrecipMm: 0, SnowCm: 25, WindKph: 10, CloudCoverPct: 20}
	svc, _ := newTestService(erzurumWeather(), WithSkiFeed(fakeSki{day: snow}))

	got, err := svc.Refresh(context.Background(), "erzurum")
	require.NoError(t, err)

	w, _ := got.Widget(KindSki)
	require.Equal(t, StatusOK, w.Status)
	assert.Equal(t, pipeline.StageRemote, w.Source)
	assert.Equal(t, 25.0, w.Data.(*island.SkiEstimate).FreshSnowCm)
}

func TestRefresh_PanicIsIsolated(t *testing.T) {
	svc, m := newTestService(&fakeWeather{}, WithTrafficFeed(&fakeTraffic{panic: true}))

	got, err := svc.Refresh(context.Background(), "istanbul")
	require.NoError(t, err)

	tr, _ := got.Widget(KindTraffic)
	assert.Equal(t, StatusFailed, tr.Status)
	assert.Equal(t, RetryPrompt, tr.Error)
	assert.Nil(t, tr.Data)

	for _, kind := range []WidgetKind{KindMarine, KindSummary} {
		w, _ := got.Widget(kind)
		assert.Equal(t, StatusOK, w.Status, kind)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WidgetFailures.WithLabelValues("traffic")))
}

func TestRefresh_RecordWithoutNarrativeFails(t *testing.T) {
	bad := &island.TrafficEstimate{City: "Ankara", LastUpdated: now}
	svc, _ := newTestService(&fakeWeather{}, WithTrafficFeed(&fakeTraffic{est: bad}))

	got, err := svc.Refresh(context.Background(), "ankara")
	require.NoError(t, err)

	tr, _ := got.Widget(KindTraffic)
	assert.Equal(t, StatusFailed, tr.Status)
}

func TestRefresh_WithoutWeather(t *testing.T) {
	svc, _ := newTestService(&fakeWeather{err: errors.New("all providers down")})

	got, err := svc.Refresh(context.Background(), "erzurum")
	require.NoError(t, err)

	for _, kind := range []WidgetKind{KindSki, KindSummary} {
		w, _ := got.Widget(kind)
		assert.Equal(t, StatusFailed, w.Status, kind)
	}

	got, err = svc.Refresh(context.Background(), "ankara")
	require.NoError(t, err)
	tr, _ := got.Widget(KindTraffic)
	assert.Equal(t, StatusOK, tr.Status)
	assert.Equal(t, pipeline.StageHeuristic, tr.Source)
}

func TestRefresh_RainFlagFromWeather(t *testing.T) {
	dry := &fakeWeather{snapshots: map[string]weather.WeatherSnapshot{"Ankara": {Timestamp: now, Condition: weather.ConditionClear}}}
	wet := &fakeWeather{snapshots: map[string]weather.WeatherSnapshot{"Ankara": {Timestamp: now, Condition: weather.ConditionRain}}}

	svcDry, _ := newTestService(dry)
	svcWet, _ := newTestService(wet)

	a, err := svcDry.Refresh(context.Background(), "ankara")
	require.NoError(t, err)
	b, err := svcWet.Refresh(context.Background(), "ankara")
	require.NoError(t, err)

	ta, _ := a.Widget(KindTraffic)
	tb, _ := b.Widget(KindTraffic)
	assert.Greater(t,
		tb.Data.(*island.TrafficEstimate).CongestionPercent,
		ta.Data.(*island.TrafficEstimate).CongestionPercent)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("ski")
	require.NoError(t, err)
	assert.Equal(t, KindSki, k)

	_, err = ParseKind("weather")
	assert.ErrorIs(t, err, ErrUnknownWidget)
}
