package engine

import (
	"math"
	"runtime"

	"github.com/j-emberton/HXforge/internal/hxerr"
	"golang.org/x/sync/errgroup"
)

const MaxSweepSteps = 100000

// SweepPoint is one evaluated point of a sweep.
type SweepPoint struct {
	Enthalpy float64
	Values   []float64
}

// Sweep interpolates steps evenly spaced keys from..to (inclusive) in t.
// The work is split into contiguous chunks, one per worker.
func Sweep(t *Table, from, to float64, steps int, policy BoundsPolicy) ([]SweepPoint, error) {
	for _, v := range []struct {
		name string
		val  float64
	}{{"from", from}, {"to", to}} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return nil, hxerr.Invalid(v.name, v.val, "must be finite")
		}
	}
	if steps < 2 || steps > MaxSweepSteps {
		return nil, hxerr.Invalid("steps", float64(steps), "must be between 2 and 100000")
	}

	points := make([]SweepPoint, steps)
	stride := (to - from) / float64(steps-1)

	// 1. Setup Workers
	numWorkers := runtime.NumCPU()
	if numWorkers > steps {
		numWorkers = steps
	}
	chunkSize := (steps + numWorkers - 1) / numWorkers

	// 2. Parallel Loop: each worker owns points[s:e]
	var g errgroup.Group
	for s := 0; s < steps; s += chunkSize {
		s := s
		e := min(s+chunkSize, steps)
		g.Go(func() error {
			for i := s; i < e; i++ {
				h := from + stride*float64(i)
				if i == steps-1 {
					h = to
				}
				row, err := t.InterpolateWith(h, policy)
				if err != nil {
					return err
				}
				points[i] = SweepPoint{Enthalpy: h, Values: row.Values}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}
