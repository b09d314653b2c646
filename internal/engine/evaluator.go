package engine

import (
	"fmt"
	"math"

	"github.com/j-emberton/HXforge/internal/hxerr"
)

// Kind tags the computation strategy behind an Evaluator.
type Kind string

const (
	KindTable    Kind = "table"
	KindExternal Kind = "external"
)

// Strategy computes a property row for one enthalpy.
type Strategy interface {
	Kind() Kind
	ComputeProperties(h float64) (Row, error)
}

// Evaluator owns the current enthalpy of one fluid and the row computed for it.
//
// SetEnthalpy recomputes eagerly, so strategy errors surface at the call that
// changed the state. An Evaluator is not safe for concurrent use; hosts give
// each session its own instance or serialize access.
type Evaluator struct {
	fluid    string
	strategy Strategy

	h       float64
	hSet    bool
	row     Row
	rowOK   bool
	lastErr error
}

// EvaluatorOption configures an Evaluator at construction.
type EvaluatorOption func(*evaluatorConfig)

type evaluatorConfig struct {
	bounds      BoundsPolicy
	pressure    float64
	hasPressure bool
}

// WithBounds selects the out-of-range policy of a table-backed evaluator.
func WithBounds(p BoundsPolicy) EvaluatorOption {
	return func(c *evaluatorConfig) { c.bounds = p }
}

// WithPressure fixes the pressure passed to an external backend.
func WithPressure(p float64) EvaluatorOption {
	return func(c *evaluatorConfig) {
		c.pressure = p
		c.hasPressure = true
	}
}

func applyOptions(opts []EvaluatorOption) evaluatorConfig {
	var cfg evaluatorConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// NewEvaluator wraps an arbitrary strategy.
func NewEvaluator(fluid string, s Strategy) *Evaluator {
	return &Evaluator{fluid: fluid, strategy: s}
}

func (e *Evaluator) Fluid() string { return e.fluid }
func (e *Evaluator) Kind() Kind    { return e.strategy.Kind() }

// SetEnthalpy stores h and recomputes the property row.
// On a strategy failure h stays stored, the row is dropped and the error is returned.
func (e *Evaluator) SetEnthalpy(h float64) (Row, error) {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return Row{}, hxerr.Invalid("enthalpy", h, "must be finite")
	}

	e.h, e.hSet = h, true
	e.row, e.rowOK = Row{}, false
	row, err := e.strategy.ComputeProperties(h)
	if err != nil {
		e.lastErr = fmt.Errorf("set enthalpy %g: %w", h, err)
		return Row{}, err
	}
	e.row, e.rowOK, e.lastErr = row, true, nil
	return row, nil
}

// Properties returns the row computed for the current enthalpy. It fails
// with ErrUninitialized, wrapping the cause, when the last recompute failed.
func (e *Evaluator) Properties() (Row, error) {
	if e.rowOK {
		return e.row, nil
	}
	if e.lastErr != nil {
		return Row{}, fmt.Errorf("%w: %v", hxerr.ErrUninitialized, e.lastErr)
	}
	return Row{}, e.unset()
}

// Enthalpy returns the last finite value passed to SetEnthalpy, whether or
// not its recompute succeeded.
func (e *Evaluator) Enthalpy() (float64, error) {
	if !e.hSet {
		return 0, e.unset()
	}
	return e.h, nil
}

func (e *Evaluator) unset() error {
	return fmt.Errorf("%w: enthalpy of %q has not been set", hxerr.ErrUninitialized, e.fluid)
}

type tableStrategy struct {
	table  *Table
	bounds BoundsPolicy
}

func (s tableStrategy) Kind() Kind { return KindTable }

func (s tableStrategy) ComputeProperties(h float64) (Row, error) {
	return s.table.InterpolateWith(h, s.bounds)
}

// NewTableEvaluator returns an evaluator that interpolates in t.
func NewTableEvaluator(t *Table, opts ...EvaluatorOption) *Evaluator {
	cfg := applyOptions(opts)
	return NewEvaluator(t.Fluid(), tableStrategy{table: t, bounds: cfg.bounds})
}
