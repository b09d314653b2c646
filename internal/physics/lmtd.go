package physics

import (
	"math"

	"github.com/j-emberton/HXforge/internal/hxerr"
)

// equalTol is the relative difference below which the two terminal
// differences are treated as equal and the log term is skipped.
const equalTol = 1e-12

// LMTD is the log-mean temperature difference of two terminal differences.
func LMTD(dT1, dT2 float64) (float64, error) {
	if err := finite(arg{"dT1", dT1}, arg{"dT2", dT2}); err != nil {
		return 0, err
	}
	if dT1 <= 0 {
		return 0, hxerr.Invalid("dT1", dT1, "temperature difference must be positive")
	}
	if dT2 <= 0 {
		return 0, hxerr.Invalid("dT2", dT2, "temperature difference must be positive")
	}
	if math.Abs(dT1-dT2) <= equalTol*math.Max(dT1, dT2) {
		return (dT1 + dT2) / 2, nil
	}
	return (dT1 - dT2) / math.Log(dT1/dT2), nil
}

// HeatLoadLMTD returns the duty Q = U·A·LMTD in W.
func HeatLoadLMTD(u, area, dT1, dT2 float64) (float64, error) {
	if err := finite(arg{"u", u}, arg{"area", area}); err != nil {
		return 0, err
	}
	if u <= 0 {
		return 0, hxerr.Invalid("u", u, "overall coefficient must be positive")
	}
	if area <= 0 {
		return 0, hxerr.Invalid("area", area, "must be positive")
	}
	lmtd, err := LMTD(dT1, dT2)
	if err != nil {
		return 0, err
	}
	return u * area * lmtd, nil
}
