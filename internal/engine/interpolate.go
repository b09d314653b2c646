package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/j-emberton/HXforge/internal/hxerr"
)

// BoundsPolicy decides what happens to queries outside the key range.
type BoundsPolicy int

const (
	// BoundsStrict fails with an *hxerr.OutOfRangeError.
	BoundsStrict BoundsPolicy = iota
	// BoundsClamp returns the nearest edge row.
	BoundsClamp
	// BoundsExtrapolate extends the first or last segment linearly.
	BoundsExtrapolate
)

func (p BoundsPolicy) String() string {
	switch p {
	case BoundsStrict:
		return "strict"
	case BoundsClamp:
		return "clamp"
	case BoundsExtrapolate:
		return "extrapolate"
	default:
		return "unknown"
	}
}

func ParseBoundsPolicy(s string) (BoundsPolicy, error) {
	switch s {
	case "", "strict":
		return BoundsStrict, nil
	case "clamp":
		return BoundsClamp, nil
	case "extrapolate":
		return BoundsExtrapolate, nil
	}
	return 0, fmt.Errorf("unknown bounds policy %q", s)
}

// Interpolate returns the row at key q, failing outside the table bounds.
func (t *Table) Interpolate(q float64) (Row, error) {
	return t.InterpolateWith(q, BoundsStrict)
}

// InterpolateWith is Interpolate with an explicit out-of-bounds policy.
// Stored keys return the stored row unchanged.
func (t *Table) InterpolateWith(q float64, policy BoundsPolicy) (Row, error) {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return Row{}, hxerr.Invalid(t.keyName, q, "query key must be finite")
	}
	keys := t.Keys()
	n := len(keys)
	if n < 2 {
		return Row{}, &hxerr.InsufficientDataError{Rows: n}
	}

	lo, hi := keys[0], keys[n-1]
	if q < lo || q > hi {
		switch policy {
		case BoundsClamp:
			if q < lo {
				return t.Row(0), nil
			}
			return t.Row(n - 1), nil
		case BoundsExtrapolate:
			if q < lo {
				return t.lerp(0, 1, q, false), nil
			}
			return t.lerp(n-2, n-1, q, false), nil
		default:
			return Row{}, &hxerr.OutOfRangeError{Query: q, Min: lo, Max: hi}
		}
	}

	i := sort.SearchFloat64s(keys, q)
	if keys[i] == q {
		return t.Row(i), nil
	}
	return t.lerp(i-1, i, q, true), nil
}

// lerp interpolates between rows i0 and i1 at q. When bracket is set the
// result is kept between the two endpoint values to absorb rounding.
func (t *Table) lerp(i0, i1 int, q float64, bracket bool) Row {
	k0, k1 := t.keys.Value(i0), t.keys.Value(i1)
	frac := (q - k0) / (k1 - k0)
	if math.IsInf(k1-k0, 0) || math.IsInf(q-k0, 0) {
		// keys near ±MaxFloat64: halve everything so the differences stay finite
		frac = (q/2 - k0/2) / (k1/2 - k0/2)
	}

	vals := make([]float64, len(t.values))
	for j, c := range t.values {
		v0, v1 := c.Value(i0), c.Value(i1)
		v := v0 + (v1-v0)*frac
		if d := v1 - v0; math.IsInf(d, 0) && !math.IsInf(v0, 0) && !math.IsInf(v1, 0) {
			v = v0*(1-frac) + v1*frac
		}
		if bracket && !math.IsInf(v0, 0) && !math.IsInf(v1, 0) {
			v = math.Max(math.Min(v0, v1), math.Min(math.Max(v0, v1), v))
		}
		vals[j] = v
	}
	return Row{Enthalpy: q, Names: t.columns, Values: vals}
}
