package engine

// HourlyConsumption resolves a load profile into 24 hourly kWh values.
// Appliance hours are not range-checked; start and end must be within 0-23.
func HourlyConsumption(profile LoadProfile) []float64 {
	hourly := make([]float64, HoursPerDay)

	switch profile.Kind {
	case LoadProfileAverage:
		perHour := profile.AverageDailyKWh / HoursPerDay
		for h := range hourly {
			hourly[h] = perHour
		}

	case LoadProfileSchedule:
		for _, a := range profile.Appliances {
			kw := a.PowerWatts / 1000.0
			for _, h := range activeHours(a) {
				hourly[h] += kw
			}
		}
	}

	return hourly
}

// activeHours lists the hours an appliance runs, wrapping past midnight
// when the window starts later than it ends (e.g. 22:00 - 02:00)
func activeHours(a ApplianceLoad) []int {
	if a.AllDay {
		return hourRange(0, HoursPerDay-1)
	}
	if a.StartHour <= a.EndHour {
		return hourRange(a.StartHour, a.EndHour)
	}
	return append(hourRange(a.StartHour, HoursPerDay-1), hourRange(0, a.EndHour)...)
}

func hourRange(from, to int) []int {
	hours := make([]int, 0, to-from+1)
	for h := from; h <= to; h++ {
		hours = append(hours, h)
	}
	return hours
}
