package engine

import "math"

// minSoC is the reserve the battery never discharges below, in percent
const minSoC = 10.0

// BatteryStep is the outcome of one hour of battery operation
type BatteryStep struct {
	ChargeKWh float64 // positive = charging, negative = discharging
	GridKWh   float64
	ExcessKWh float64
	SoC       float64 // percent after the hour
}

// StepBattery applies one hour's energy balance (production - consumption)
// to a battery at the given state of charge. Charging divides by efficiency
// and discharging multiplies by it. The resulting SoC is not clamped.
func StepBattery(capacityKWh, efficiency, soc, balanceKWh float64) BatteryStep {
	if capacityKWh <= 0 {
		return BatteryStep{
			GridKWh:   math.Max(0, -balanceKWh),
			ExcessKWh: math.Max(0, balanceKWh),
			SoC:       soc,
		}
	}

	if balanceKWh > 0 {
		maxCharge := (100 - soc) / 100 * capacityKWh / efficiency
		charge := math.Min(balanceKWh, maxCharge)
		return BatteryStep{
			ChargeKWh: charge,
			ExcessKWh: balanceKWh - charge,
			SoC:       soc + charge/capacityKWh*100,
		}
	}

	maxDischarge := math.Max(0, (soc-minSoC)/100*capacityKWh) * efficiency
	deficit := -balanceKWh
	discharge := -math.Min(deficit, maxDischarge)
	return BatteryStep{
		ChargeKWh: discharge,
		GridKWh:   math.Max(0, deficit+discharge),
		SoC:       soc + discharge/capacityKWh*100,
	}
}
