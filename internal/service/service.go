// Package service gathers the inputs of a household forecast from storage
// and the weather provider, then runs the simulator on them.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/awaistahir/solarhub/internal/engine"
	"github.com/awaistahir/solarhub/internal/log"
	"github.com/awaistahir/solarhub/internal/store"
)

var (
	// ErrNoLocation means the household has no location fix yet
	ErrNoLocation = errors.New("household has no location")
	// ErrWeatherUnavailable wraps any failure of the weather provider
	ErrWeatherUnavailable = errors.New("weather unavailable")
)

// WeatherProvider fetches one day of hourly solar weather for a location
type WeatherProvider interface {
	HourlySolar(ctx context.Context, lat, lon float64) (*engine.SolarWeather, error)
}

// Result is a forecast plus the inputs it was computed from
type Result struct {
	Household engine.Household     `json:"household"`
	System    engine.SystemConfig  `json:"system"`
	Load      engine.LoadProfile   `json:"load_profile"`
	Weather   engine.SolarWeather  `json:"weather"`
	Forecast  engine.DailyForecast `json:"forecast"`
}

// Service composes the store, the weather provider and the simulator
type Service struct {
	store   *store.Store
	weather WeatherProvider
	now     func() time.Time
}

// New creates a Service
func New(st *store.Store, weather WeatherProvider) *Service {
	return &Service{
		store:   st,
		weather: weather,
		now:     time.Now,
	}
}

// Weather returns today's weather for the household, served from the cache
// when it was already fetched today
func (s *Service) Weather(ctx context.Context, householdID string) (*engine.SolarWeather, *engine.Household, error) {
	h, err := s.store.GetHousehold(householdID)
	if err != nil {
		return nil, nil, err
	}
	if h.Location == nil {
		return nil, h, ErrNoLocation
	}

	logger := log.Ctx(ctx).With("household", h.ID, "lat", h.Location.Latitude, "lon", h.Location.Longitude)
	today := localDay(s.now(), *h.Location)

	w, err := s.store.GetCachedWeather(*h.Location, today)
	if err == nil {
		logger.Debug("using cached weather")
		return w, h, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		logger.Warn("reading weather cache", "error", err)
	}

	w, err = s.weather.HourlySolar(ctx, h.Location.Latitude, h.Location.Longitude)
	if err != nil {
		return nil, h, fmt.Errorf("%w: %w", ErrWeatherUnavailable, err)
	}

	if err := s.store.CacheWeather(*h.Location, today, w); err != nil {
		logger.Warn("caching weather", "error", err)
	}
	logger.Info("fetched weather", "hours", len(w.Temperatures))

	return w, h, nil
}

// Forecast runs the simulator for a household's stored configuration.
// Nothing is simulated unless location and weather are both available.
func (s *Service) Forecast(ctx context.Context, householdID string) (*Result, error) {
	w, h, err := s.Weather(ctx, householdID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.store.GetSystem(householdID)
	if err != nil {
		return nil, fmt.Errorf("getting system: %w", err)
	}
	load, err := s.store.GetLoadProfile(householdID)
	if err != nil {
		return nil, fmt.Errorf("getting load profile: %w", err)
	}
	if err := load.Validate(); err != nil {
		return nil, fmt.Errorf("stored load profile: %w", err)
	}

	forecast := engine.Forecast(cfg, load, *w, h.Location.Latitude)

	log.Ctx(ctx).Debug("forecast computed",
		"household", h.ID,
		"production_kwh", forecast.TotalProductionKWh,
		"grid_kwh", forecast.TotalGridKWh,
		"final_soc", forecast.FinalSoC)

	return &Result{
		Household: *h,
		System:    cfg,
		Load:      load,
		Weather:   *w,
		Forecast:  forecast,
	}, nil
}

// localDay moves now into the solar time zone of loc (15° of longitude per
// hour) so the cache key follows the location's day, like the weather API's
// timezone=auto. Political zones can differ from it by an hour or two.
func localDay(now time.Time, loc engine.Location) time.Time {
	offset := int(math.Round(loc.Longitude/15)) * 3600
	return now.In(time.FixedZone("", offset))
}
