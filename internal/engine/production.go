package engine

import "math"

const (
	// stcIrradiance is the Standard Test Conditions irradiance in W/m²
	stcIrradiance = 1000.0
	// stcTempC is the Standard Test Conditions cell temperature
	stcTempC = 25.0
	// tempCoefficient is the fractional power change per °C above STC
	tempCoefficient = -0.004
	// systemEfficiency covers inverter and wiring losses
	systemEfficiency = 0.85
	// minTiltFactor keeps a badly angled panel producing something
	minTiltFactor = 0.1
)

// SolarProduction estimates the kWh a panel array yields during one hour.
// tiltDeg may be nil, in which case the tilt equals |latitude|.
func SolarProduction(capacityKWp float64, tiltDeg *float64, irr IrradianceSample, tempC, latitude float64, hour int) float64 {
	if capacityKWp <= 0 {
		return 0
	}

	tilt := OptimalTilt(latitude)
	if tiltDeg != nil {
		tilt = *tiltDeg
	}

	tilted := irr.GHI * TiltFactor(tilt, latitude) * ElevationFactor(hour)
	derating := 1 + tempCoefficient*(tempC-stcTempC)
	dcKW := capacityKWp * (tilted / stcIrradiance) * derating

	return math.Max(0, dcKW*systemEfficiency)
}

// OptimalTilt is the year-round rule of thumb: tilt equals latitude
func OptimalTilt(latitude float64) float64 {
	return math.Abs(latitude)
}

// TiltFactor approximates how the panel angle relative to latitude scales
// captured irradiance. It never drops below 0.1.
func TiltFactor(tiltDeg, latitude float64) float64 {
	f := math.Cos((tiltDeg - latitude) * math.Pi / 180)
	return math.Max(minTiltFactor, f)
}

// ElevationFactor approximates sun height by hour of day, peaking at solar
// noon. Hours outside 06:00-17:00 produce nothing.
func ElevationFactor(hour int) float64 {
	if hour < 6 || hour > 17 {
		return 0
	}
	fromNoon := math.Abs(float64(hour - 12))
	return math.Max(0, math.Cos(fromNoon*math.Pi/12))
}
