// Package scenario loads self-contained forecast inputs from YAML so a day
// can be simulated without a weather provider or a database.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"github.com/awaistahir/solarhub/internal/engine"

	"gopkg.in/yaml.v3"
)

// ErrNoLoad is returned when a scenario specifies neither an average load nor appliances
var ErrNoLoad = errors.New("scenario has no load profile")

// Scenario is the on-disk shape (YAML)
type Scenario struct {
	Name     string        `yaml:"name"`
	Latitude float64       `yaml:"latitude"`
	System   SystemConfig  `yaml:"system"`
	Load     LoadConfig    `yaml:"load"`
	Weather  WeatherConfig `yaml:"weather"`
}

type SystemConfig struct {
	PanelKWp    float64  `yaml:"panel_kwp"`
	PanelTilt   *float64 `yaml:"panel_tilt"`
	BatteryType string   `yaml:"battery_type"`
	BatteryKWh  float64  `yaml:"battery_kwh"`
	BatterySoC  *float64 `yaml:"battery_soc"`
}

type LoadConfig struct {
	AverageDailyKWh *float64          `yaml:"average_daily_kwh"`
	Appliances      []ApplianceConfig `yaml:"appliances"`
}

type ApplianceConfig struct {
	Name       string  `yaml:"name"`
	PowerWatts float64 `yaml:"power_watts"`
	Start      int     `yaml:"start"`
	End        int     `yaml:"end"`
	AllDay     bool    `yaml:"all_day"`
}

// WeatherConfig gives either full hourly series or constants applied to
// every hour. Series entries win over constants.
type WeatherConfig struct {
	Temperatures []float64         `yaml:"temperatures"`
	Irradiance   []IrradianceEntry `yaml:"irradiance"`
	ConstantGHI  *float64          `yaml:"constant_ghi"`
	ConstantTemp *float64          `yaml:"constant_temp"`
}

type IrradianceEntry struct {
	GHI float64 `yaml:"ghi"`
	DNI float64 `yaml:"dni"`
	DHI float64 `yaml:"dhi"`
}

// Load reads and decodes a scenario file
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a scenario from YAML
func Parse(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if s.Load.AverageDailyKWh == nil && len(s.Load.Appliances) == 0 {
		return nil, ErrNoLoad
	}
	if err := engine.ScheduledLoad(s.appliances()...).Validate(); err != nil {
		return nil, fmt.Errorf("scenario load: %w", err)
	}
	if err := s.SystemConfig().Validate(); err != nil {
		return nil, fmt.Errorf("scenario system: %w", err)
	}
	return &s, nil
}

// SystemConfig converts the scenario system to engine form, applying the
// defaults of a new household for omitted fields
func (s *Scenario) SystemConfig() engine.SystemConfig {
	cfg := engine.DefaultSystemConfig()
	cfg.PanelCapacityKWp = s.System.PanelKWp
	cfg.PanelTiltDeg = s.System.PanelTilt
	cfg.BatteryKWh = s.System.BatteryKWh
	if s.System.BatteryType != "" {
		cfg.BatteryType = engine.BatteryType(s.System.BatteryType)
	}
	if s.System.BatterySoC != nil {
		cfg.BatterySoC = *s.System.BatterySoC
	}
	return cfg
}

// LoadProfile converts the scenario load. An explicit average takes
// precedence over an appliance list.
func (s *Scenario) LoadProfile() engine.LoadProfile {
	if s.Load.AverageDailyKWh != nil {
		return engine.AverageLoad(*s.Load.AverageDailyKWh)
	}

	return engine.ScheduledLoad(s.appliances()...)
}

func (s *Scenario) appliances() []engine.ApplianceLoad {
	appliances := make([]engine.ApplianceLoad, 0, len(s.Load.Appliances))
	for _, a := range s.Load.Appliances {
		appliances = append(appliances, engine.ApplianceLoad{
			Name:       a.Name,
			PowerWatts: a.PowerWatts,
			StartHour:  a.Start,
			EndHour:    a.End,
			AllDay:     a.AllDay,
		})
	}
	return appliances
}

// SolarWeather expands the weather section into hourly series. Hours not
// covered by a series or a constant are left out and the simulator
// substitutes its own defaults.
func (s *Scenario) SolarWeather() engine.SolarWeather {
	var w engine.SolarWeather

	switch {
	case len(s.Weather.Irradiance) > 0:
		for h, e := range s.Weather.Irradiance {
			w.Irradiance = append(w.Irradiance, engine.IrradianceSample{Hour: h, GHI: e.GHI, DNI: e.DNI, DHI: e.DHI})
		}
	case s.Weather.ConstantGHI != nil:
		for h := 0; h < engine.HoursPerDay; h++ {
			w.Irradiance = append(w.Irradiance, engine.IrradianceSample{Hour: h, GHI: *s.Weather.ConstantGHI})
		}
	}

	switch {
	case len(s.Weather.Temperatures) > 0:
		w.Temperatures = append(w.Temperatures, s.Weather.Temperatures...)
	case s.Weather.ConstantTemp != nil:
		for h := 0; h < engine.HoursPerDay; h++ {
			w.Temperatures = append(w.Temperatures, *s.Weather.ConstantTemp)
		}
	}

	if len(w.Temperatures) > 0 {
		w.Current.TempC = w.Temperatures[0]
	}

	return w
}

// Forecast runs the simulator on the scenario
func (s *Scenario) Forecast() engine.DailyForecast {
	return engine.Forecast(s.SystemConfig(), s.LoadProfile(), s.SolarWeather(), s.Latitude)
}
