// Package physics holds the closed-form heat-exchanger formulas used
// alongside the property engine.
// Units: W/(m²·K) for HTCs, K·m²/W for resistances, m, m², K, W.
package physics

import (
	"math"

	"github.com/j-emberton/HXforge/internal/hxerr"
)

type arg struct {
	name string
	v    float64
}

func finite(args ...arg) error {
	for _, a := range args {
		if math.IsNaN(a.v) || math.IsInf(a.v, 0) {
			return hxerr.Invalid(a.name, a.v, "must be finite")
		}
	}
	return nil
}

// OverallHTC combines two film coefficients and a wall resistance in series.
func OverallHTC(htc1, htc2, rWall float64) (float64, error) {
	if err := finite(arg{"htc1", htc1}, arg{"htc2", htc2}, arg{"rWall", rWall}); err != nil {
		return 0, err
	}
	switch {
	case htc1 <= 0:
		return 0, hxerr.Invalid("htc1", htc1, "heat transfer coefficient must be positive")
	case htc2 <= 0:
		return 0, hxerr.Invalid("htc2", htc2, "heat transfer coefficient must be positive")
	case rWall < 0:
		return 0, hxerr.Invalid("rWall", rWall, "wall resistance must be non-negative")
	}
	return 1 / (1/htc1 + rWall + 1/htc2), nil
}

// WallResistance is the conductive resistance of a plane wall.
func WallResistance(thickness, k float64) (float64, error) {
	if err := finite(arg{"thickness", thickness}, arg{"k", k}); err != nil {
		return 0, err
	}
	if thickness <= 0 {
		return 0, hxerr.Invalid("thickness", thickness, "must be positive")
	}
	if k <= 0 {
		return 0, hxerr.Invalid("k", k, "thermal conductivity must be positive")
	}
	return thickness / k, nil
}

// TubeOuterArea is the outer surface of a straight tube, π·OD·L.
func TubeOuterArea(length, od float64) (float64, error) {
	if err := finite(arg{"length", length}, arg{"od", od}); err != nil {
		return 0, err
	}
	if length <= 0 {
		return 0, hxerr.Invalid("length", length, "must be positive")
	}
	if od <= 0 {
		return 0, hxerr.Invalid("od", od, "must be positive")
	}
	return math.Pi * od * length, nil
}
