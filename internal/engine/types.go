package engine

// HoursPerDay is the fixed forecast horizon.
const HoursPerDay = 24

// BatteryType selects the battery chemistry
type BatteryType string

const (
	BatteryLiIon    BatteryType = "li_ion"    // Lithium-Ion, 95% efficient
	BatteryLeadAcid BatteryType = "lead_acid" // Lead-Acid, 85% efficient
)

// Efficiency returns the charge/discharge efficiency factor (0-1).
// Unknown chemistries use Lithium-Ion figures.
func (b BatteryType) Efficiency() float64 {
	switch b {
	case BatteryLeadAcid:
		return 0.85
	default:
		return 0.95
	}
}

// DisplayName returns a human-readable chemistry name
func (b BatteryType) DisplayName() string {
	switch b {
	case BatteryLeadAcid:
		return "Lead-Acid"
	default:
		return "Lithium-Ion"
	}
}

// SystemConfig describes the solar panels and battery of a household
type SystemConfig struct {
	PanelCapacityKWp float64     `json:"panel_capacity_kwp"`
	PanelTiltDeg     *float64    `json:"panel_tilt_deg,omitempty"` // nil = derive from latitude
	BatteryType      BatteryType `json:"battery_type"`
	BatteryKWh       float64     `json:"battery_kwh"`
	BatterySoC       float64     `json:"battery_soc"` // percent, nominally 0-100
}

// BatteryEfficiency returns the efficiency factor of the configured chemistry
func (c SystemConfig) BatteryEfficiency() float64 {
	return c.BatteryType.Efficiency()
}

// DefaultSystemConfig returns the configuration of a freshly set up household
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		BatteryType: BatteryLiIon,
		BatterySoC:  50,
	}
}

// LoadProfileKind tags which variant a LoadProfile carries
type LoadProfileKind string

const (
	LoadProfileAverage  LoadProfileKind = "average"  // single daily kWh figure
	LoadProfileSchedule LoadProfileKind = "schedule" // per-appliance schedule
)

// ApplianceLoad is one scheduled household load
type ApplianceLoad struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name"`
	PowerWatts float64 `json:"power_watts"`
	StartHour  int     `json:"start_hour"` // 0-23, ignored when AllDay
	EndHour    int     `json:"end_hour"`   // 0-23, inclusive
	AllDay     bool    `json:"all_day"`
}

// LoadProfile describes household consumption. Only the fields matching
// Kind are read: AverageDailyKWh for LoadProfileAverage, Appliances for
// LoadProfileSchedule.
type LoadProfile struct {
	Kind            LoadProfileKind `json:"kind"`
	AverageDailyKWh float64         `json:"average_daily_kwh,omitempty"`
	Appliances      []ApplianceLoad `json:"appliances,omitempty"`
}

// AverageLoad builds an average-daily load profile
func AverageLoad(dailyKWh float64) LoadProfile {
	return LoadProfile{Kind: LoadProfileAverage, AverageDailyKWh: dailyKWh}
}

// ScheduledLoad builds an appliance-schedule load profile
func ScheduledLoad(appliances ...ApplianceLoad) LoadProfile {
	return LoadProfile{Kind: LoadProfileSchedule, Appliances: appliances}
}

// IrradianceSample holds one hour of irradiance components in W/m²
type IrradianceSample struct {
	Hour int     `json:"hour"`
	GHI  float64 `json:"ghi"` // global horizontal
	DNI  float64 `json:"dni"` // direct normal
	DHI  float64 `json:"dhi"` // diffuse horizontal
}

// CurrentWeather is the present-moment conditions at the household
type CurrentWeather struct {
	TempC        float64 `json:"temp_c"`
	WindSpeedKmh float64 `json:"wind_speed_kmh"`
}

// SolarWeather is the weather input of one forecast day
type SolarWeather struct {
	Current      CurrentWeather     `json:"current"`
	Temperatures []float64          `json:"temperatures"` // °C, index = hour
	Irradiance   []IrradianceSample `json:"irradiance"`   // index = hour
}

// HourlyRecord is the energy account of a single hour
type HourlyRecord struct {
	Hour           int     `json:"hour"`
	ProductionKWh  float64 `json:"production_kwh"`
	ConsumptionKWh float64 `json:"consumption_kwh"`
	BatterySoC     float64 `json:"battery_soc"` // percent after this hour
	BatteryKWh     float64 `json:"battery_kwh"` // positive = charging, negative = discharging
	GridKWh        float64 `json:"grid_kwh"`    // drawn from the grid
	ExcessKWh      float64 `json:"excess_kwh"`  // exported/surplus
}

// DailyForecast is the 24-hour forecast with daily totals
type DailyForecast struct {
	Hours               []HourlyRecord `json:"hours"`
	TotalProductionKWh  float64        `json:"total_production_kwh"`
	TotalConsumptionKWh float64        `json:"total_consumption_kwh"`
	TotalGridKWh        float64        `json:"total_grid_kwh"`
	TotalExcessKWh      float64        `json:"total_excess_kwh"`
	FinalSoC            float64        `json:"final_soc"`
}

// Location is a point on earth in degrees
type Location struct {
	Latitude  float64 `json:"latitude"`  // -90 to 90
	Longitude float64 `json:"longitude"` // -180 to 180
}

// Household is the owner of a solar system and load profile
type Household struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Location *Location `json:"location,omitempty"` // nil until a location is set
}
