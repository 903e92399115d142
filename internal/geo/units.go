package geo

import "fmt"

// Unit is a distance unit accepted by the cost model.
type Unit string

const (
	Kilometers Unit = "km"
	Miles      Unit = "mile"
)

// ParseUnit maps user input to a Unit. Empty input means kilometers.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "", "km", "kilometer", "kilometers":
		return Kilometers, nil
	case "mile", "miles", "mi":
		return Miles, nil
	default:
		return "", fmt.Errorf("unknown distance unit %q", s)
	}
}

// FromKm converts a kilometer distance into the unit.
func (u Unit) FromKm(km float64) float64 {
	if u == Miles {
		return km / KmPerMile
	}
	return km
}
