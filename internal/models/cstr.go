package models

import (
	"github.com/san-kum/cstrsim/internal/dynamo"
)

// Default physical constants of the salt-solution tank heated by steam.
const (
	DefaultVolume       = 10.0   // m^3
	DefaultDensity      = 1100.0 // kg/m^3
	DefaultSpecificHeat = 4.180  // kJ/(kg*K)
	DefaultLatentHeat   = 2272.0 // kJ/kg, steam at 100 degC and 1 atm
)

// Input channel indices of the CSTR control vector.
const (
	InputFlow = iota
	InputSteam
	InputConcentration
	InputTemperature
)

// Output channel indices of the CSTR state vector.
const (
	StateConcentration = iota
	StateTemperature
)

// CSTR is a continuous stirred tank with perfect level control.
//
// State is [Ca, T], the outlet concentration and temperature.
// Control is [F, W, Ca_in, T_in]: feed flow rate, steam flow rate,
// inlet concentration and inlet temperature.
type CSTR struct {
	Volume       float64
	Density      float64
	SpecificHeat float64
	LatentHeat   float64
}

func NewCSTR() *CSTR {
	return &CSTR{
		Volume:       DefaultVolume,
		Density:      DefaultDensity,
		SpecificHeat: DefaultSpecificHeat,
		LatentHeat:   DefaultLatentHeat,
	}
}

func (c *CSTR) StateDim() int {
	return 2
}

func (c *CSTR) ControlDim() int {
	return 4
}

// Derive evaluates the mass and energy balances. Inputs are not range
// checked; F = 0 is a legal, if degenerate, operating point.
func (c *CSTR) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	ca, temp := x[StateConcentration], x[StateTemperature]
	f, w := u[InputFlow], u[InputSteam]
	caIn, tIn := u[InputConcentration], u[InputTemperature]

	rc := c.Density * c.SpecificHeat

	dCa := (caIn*f - ca*f) / c.Volume
	dT := (rc*f*tIn - rc*f*temp + w*c.LatentHeat) / (c.Volume * rc)

	return dynamo.State{dCa, dT}
}

// SteadyState returns the equilibrium reached under a constant input.
// A zero feed flow yields an infinite temperature.
func (c *CSTR) SteadyState(u dynamo.Control) dynamo.State {
	rc := c.Density * c.SpecificHeat
	f := u[InputFlow]
	return dynamo.State{
		u[InputConcentration],
		(rc*f*u[InputTemperature] + u[InputSteam]*c.LatentHeat) / (rc * f),
	}
}

// GetParams exposes the physical constants by name.
func (c *CSTR) GetParams() map[string]float64 {
	return map[string]float64{
		"volume":        c.Volume,
		"density":       c.Density,
		"specific_heat": c.SpecificHeat,
		"latent_heat":   c.LatentHeat,
	}
}
