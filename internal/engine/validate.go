package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHour        = errors.New("hour must be between 0 and 23")
	ErrInvalidLocation    = errors.New("latitude must be between -90 and 90 and longitude between -180 and 180")
	ErrUnknownBatteryType = errors.New("unknown battery type")
)

// The simulator trusts its inputs. Callers that accept user data check it
// with the helpers below before calling it.

func validHour(h int) bool {
	return h >= 0 && h < HoursPerDay
}

// Validate checks the hour window of a scheduled appliance
func (a ApplianceLoad) Validate() error {
	if a.AllDay {
		return nil
	}
	if !validHour(a.StartHour) || !validHour(a.EndHour) {
		return fmt.Errorf("appliance %q runs %d-%d: %w", a.Name, a.StartHour, a.EndHour, ErrInvalidHour)
	}
	return nil
}

// Validate checks every appliance of the profile, whatever its kind, so a
// later switch to the schedule variant cannot pick up a bad window
func (p LoadProfile) Validate() error {
	for _, a := range p.Appliances {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Valid reports whether b is a known chemistry
func (b BatteryType) Valid() bool {
	return b == BatteryLiIon || b == BatteryLeadAcid
}

// Validate checks the battery chemistry
func (c SystemConfig) Validate() error {
	if !c.BatteryType.Valid() {
		return fmt.Errorf("%w %q (use li_ion or lead_acid)", ErrUnknownBatteryType, c.BatteryType)
	}
	return nil
}

// Validate checks the coordinate ranges
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}
