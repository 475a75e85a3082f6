package engine

// defaultTempC is used for hours missing from the temperature series
const defaultTempC = 25.0

// CalculateDailyForecast simulates production, consumption and battery
// state hour by hour over one day. Hours missing from irradiance or
// temperatures are treated as dark at 25°C. The function is pure: the
// state of charge starts from cfg.BatterySoC on every call.
func CalculateDailyForecast(cfg SystemConfig, load LoadProfile, irradiance []IrradianceSample, temperatures []float64, latitude float64) DailyForecast {
	consumption := HourlyConsumption(load)
	efficiency := cfg.BatteryEfficiency()

	forecast := DailyForecast{
		Hours: make([]HourlyRecord, 0, HoursPerDay),
	}

	soc := cfg.BatterySoC
	for h := 0; h < HoursPerDay; h++ {
		irr := IrradianceSample{Hour: h}
		if h < len(irradiance) {
			irr = irradiance[h]
		}
		temp := defaultTempC
		if h < len(temperatures) {
			temp = temperatures[h]
		}

		production := SolarProduction(cfg.PanelCapacityKWp, cfg.PanelTiltDeg, irr, temp, latitude, h)
		step := StepBattery(cfg.BatteryKWh, efficiency, soc, production-consumption[h])
		soc = step.SoC

		forecast.Hours = append(forecast.Hours, HourlyRecord{
			Hour:           h,
			ProductionKWh:  production,
			ConsumptionKWh: consumption[h],
			BatterySoC:     step.SoC,
			BatteryKWh:     step.ChargeKWh,
			GridKWh:        step.GridKWh,
			ExcessKWh:      step.ExcessKWh,
		})
	}

	for _, rec := range forecast.Hours {
		forecast.TotalProductionKWh += rec.ProductionKWh
		forecast.TotalConsumptionKWh += rec.ConsumptionKWh
		forecast.TotalGridKWh += rec.GridKWh
		forecast.TotalExcessKWh += rec.ExcessKWh
	}
	forecast.FinalSoC = soc

	return forecast
}

// Forecast runs CalculateDailyForecast on a fetched weather day
func Forecast(cfg SystemConfig, load LoadProfile, w SolarWeather, latitude float64) DailyForecast {
	return CalculateDailyForecast(cfg, load, w.Irradiance, w.Temperatures, latitude)
}
