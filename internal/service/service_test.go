package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/awaistahir/solarhub/internal/engine"
	"github.com/awaistahir/solarhub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWeather struct {
	calls int
	w     *engine.SolarWeather
	err   error
}

func (f *fakeWeather) HourlySolar(ctx context.Context, lat, lon float64) (*engine.SolarWeather, error) {
	f.calls++
	return f.w, f.err
}

func sunnyDay() *engine.SolarWeather {
	w := &engine.SolarWeather{Current: engine.CurrentWeather{TempC: 20}}
	for h := 0; h < engine.HoursPerDay; h++ {
		w.Temperatures = append(w.Temperatures, 20)
		w.Irradiance = append(w.Irradiance, engine.IrradianceSample{Hour: h, GHI: 800})
	}
	return w
}

func newTestService(t *testing.T, weather WeatherProvider) (*Service, *store.Store) {
	t.Helper()
	st, err := store.NewStore(filepath.Join(t.TempDir(), "solarhub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := New(st, weather)
	svc.now = func() time.Time { return time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC) }
	return svc, st
}

func TestForecast(t *testing.T) {
	weather := &fakeWeather{w: sunnyDay()}
	svc, st := newTestService(t, weather)

	require.NoError(t, st.SaveHousehold(&engine.Household{
		ID:       "default",
		Name:     "Home",
		Location: &engine.Location{Latitude: 35, Longitude: 139},
	}))
	require.NoError(t, st.SaveSystem("default", engine.SystemConfig{
		PanelCapacityKWp: 5,
		BatteryType:      engine.BatteryLiIon,
		BatteryKWh:       10,
		BatterySoC:       50,
	}))
	require.NoError(t, st.SaveLoadProfile("default", engine.AverageLoad(20)))

	res, err := svc.Forecast(context.Background(), "default")
	require.NoError(t, err)
	assert.InDelta(t, 49.99999963237045, res.Forecast.FinalSoC, 1e-9)
	assert.Equal(t, "Home", res.Household.Name)
	assert.Equal(t, 1, weather.calls)

	// a config edit re-runs against the cached day
	require.NoError(t, st.SaveSystem("default", engine.SystemConfig{PanelCapacityKWp: 0, BatteryKWh: 0, BatterySoC: 50}))
	res, err = svc.Forecast(context.Background(), "default")
	require.NoError(t, err)
	assert.Zero(t, res.Forecast.TotalProductionKWh)
	assert.InDelta(t, 20, res.Forecast.TotalGridKWh, 1e-9)
	assert.Equal(t, 1, weather.calls)
}

func TestForecast_Errors(t *testing.T) {
	weather := &fakeWeather{err: errors.New("connection refused")}
	svc, st := newTestService(t, weather)

	_, err := svc.Forecast(context.Background(), "default")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.SaveHousehold(&engine.Household{ID: "default", Name: "Home"}))
	_, err = svc.Forecast(context.Background(), "default")
	assert.ErrorIs(t, err, ErrNoLocation)
	assert.Zero(t, weather.calls)

	require.NoError(t, st.SaveHousehold(&engine.Household{
		ID:       "default",
		Name:     "Home",
		Location: &engine.Location{Latitude: 1, Longitude: 2},
	}))
	_, err = svc.Forecast(context.Background(), "default")
	assert.ErrorIs(t, err, ErrWeatherUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLocalDay(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		lon  float64
		want string
	}{
		{"tokyo next morning", time.Date(2026, 3, 20, 20, 0, 0, 0, time.UTC), 139.7, "2026-03-21"},
		{"los angeles previous evening", time.Date(2026, 3, 20, 2, 0, 0, 0, time.UTC), -118.2, "2026-03-19"},
		{"greenwich", time.Date(2026, 3, 20, 23, 59, 0, 0, time.UTC), -0.1, "2026-03-20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := localDay(tt.now, engine.Location{Longitude: tt.lon})
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestWeatherCacheFollowsLocationDay(t *testing.T) {
	weather := &fakeWeather{w: sunnyDay()}
	svc, st := newTestService(t, weather)
	svc.now = func() time.Time { return time.Date(2026, 3, 20, 20, 0, 0, 0, time.UTC) }

	loc := engine.Location{Latitude: 35.7, Longitude: 139.7}
	require.NoError(t, st.SaveHousehold(&engine.Household{ID: "default", Name: "Tokyo", Location: &loc}))

	// yesterday for the household, although still today in UTC
	stale := &engine.SolarWeather{Temperatures: []float64{-5}}
	require.NoError(t, st.CacheWeather(loc, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), stale))

	w, _, err := svc.Weather(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 1, weather.calls)
	assert.Len(t, w.Temperatures, engine.HoursPerDay)

	_, err = st.GetCachedWeather(loc, time.Date(2026, 3, 21, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)

	_, _, err = svc.Weather(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 1, weather.calls)
}
