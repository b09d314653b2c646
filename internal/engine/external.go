package engine

import (
	"math"

	"github.com/j-emberton/HXforge/internal/hxerr"
)

// State is the thermodynamic state handed to an external backend.
type State struct {
	Enthalpy    float64
	Pressure    float64
	HasPressure bool
}

// Backend computes properties from a state without a table, e.g. an
// equation-of-state library or a correlation set.
type Backend interface {
	ComputeFromState(st State) (Row, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(st State) (Row, error)

func (f BackendFunc) ComputeFromState(st State) (Row, error) { return f(st) }

type externalStrategy struct {
	backend     Backend
	pressure    float64
	hasPressure bool
}

func (s externalStrategy) Kind() Kind { return KindExternal }

func (s externalStrategy) ComputeProperties(h float64) (Row, error) {
	return s.backend.ComputeFromState(State{Enthalpy: h, Pressure: s.pressure, HasPressure: s.hasPressure})
}

// NewExternalEvaluator returns an evaluator that delegates to b.
func NewExternalEvaluator(fluid string, b Backend, opts ...EvaluatorOption) *Evaluator {
	cfg := applyOptions(opts)
	return NewEvaluator(fluid, externalStrategy{backend: b, pressure: cfg.pressure, hasPressure: cfg.hasPressure})
}

var liquidColumns = []string{"temperature", "density", "cp", "viscosity", "conductivity"}

// IncompressibleLiquid is a constant-property liquid model:
// T = Tref + (h - Href) / Cp, everything else fixed.
// Units follow the tables: J/kg, K, kg/m³, J/(kg·K), Pa·s, W/(m·K).
type IncompressibleLiquid struct {
	Href         float64
	Tref         float64
	Density      float64
	Cp           float64
	Viscosity    float64
	Conductivity float64
}

// Water25C is liquid water around 25 °C with h = 0 at 0 °C.
var Water25C = IncompressibleLiquid{
	Href:         0,
	Tref:         273.15,
	Density:      997.0,
	Cp:           4181.0,
	Viscosity:    0.00089,
	Conductivity: 0.607,
}

func (l IncompressibleLiquid) ComputeFromState(st State) (Row, error) {
	if l.Cp <= 0 {
		return Row{}, hxerr.Invalid("cp", l.Cp, "must be positive")
	}
	if st.HasPressure && (math.IsNaN(st.Pressure) || st.Pressure <= 0) {
		return Row{}, hxerr.Invalid("pressure", st.Pressure, "must be positive")
	}
	t := l.Tref + (st.Enthalpy-l.Href)/l.Cp
	if t <= 0 {
		return Row{}, hxerr.Invalid("enthalpy", st.Enthalpy, "gives a temperature at or below absolute zero")
	}
	return Row{
		Enthalpy: st.Enthalpy,
		Names:    liquidColumns,
		Values:   []float64{t, l.Density, l.Cp, l.Viscosity, l.Conductivity},
	}, nil
}
