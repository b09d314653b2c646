package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/j-emberton/HXforge/internal/hxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluatorUninitialized(t *testing.T) {
	ev := NewTableEvaluator(densityTable(t))

	_, err := ev.Properties()
	assert.ErrorIs(t, err, hxerr.ErrUninitialized)
	_, err = ev.Enthalpy()
	assert.ErrorIs(t, err, hxerr.ErrUninitialized)
	assert.Equal(t, KindTable, ev.Kind())
	assert.Equal(t, "water", ev.Fluid())
}

func TestEvaluatorNeverStale(t *testing.T) {
	ev := NewTableEvaluator(densityTable(t))

	_, err := ev.SetEnthalpy(120.0)
	require.NoError(t, err)
	returned, err := ev.SetEnthalpy(180.0)
	require.NoError(t, err)

	row, err := ev.Properties()
	require.NoError(t, err)
	assert.Equal(t, returned, row)
	assert.InDelta(t, 920.0, row.Values[0], 1e-9)

	h, err := ev.Enthalpy()
	require.NoError(t, err)
	assert.Equal(t, 180.0, h)
}

func TestEvaluatorRejectsNonFinite(t *testing.T) {
	ev := NewTableEvaluator(densityTable(t))
	_, err := ev.SetEnthalpy(150.0)
	require.NoError(t, err)

	for _, h := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := ev.SetEnthalpy(h)
		assert.ErrorIs(t, err, hxerr.ErrInvalidInput)
	}

	// invalid input never reaches the state
	got, err := ev.Enthalpy()
	require.NoError(t, err)
	assert.Equal(t, 150.0, got)
}

func TestEvaluatorFailedRecomputeUnsets(t *testing.T) {
	ev := NewTableEvaluator(densityTable(t))
	_, err := ev.SetEnthalpy(150.0)
	require.NoError(t, err)

	_, err = ev.SetEnthalpy(500.0)
	require.ErrorIs(t, err, hxerr.ErrOutOfRange)

	_, err = ev.Properties()
	assert.ErrorIs(t, err, hxerr.ErrUninitialized)
	assert.Contains(t, err.Error(), "500")

	// the failed value is still the current enthalpy
	h, err := ev.Enthalpy()
	require.NoError(t, err)
	assert.Equal(t, 500.0, h)

	_, err = ev.SetEnthalpy(100.0)
	require.NoError(t, err)
	row, err := ev.Properties()
	require.NoError(t, err)
	assert.Equal(t, 1000.0, row.Values[0])
}

func TestEvaluatorBoundsOption(t *testing.T) {
	ev := NewTableEvaluator(densityTable(t), WithBounds(BoundsClamp))
	row, err := ev.SetEnthalpy(10.0)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, row.Values[0])
}

func TestExternalEvaluatorDelegates(t *testing.T) {
	var seen []State
	backend := BackendFunc(func(st State) (Row, error) {
		seen = append(seen, st)
		return Row{Enthalpy: st.Enthalpy, Names: []string{"density"}, Values: []float64{st.Enthalpy / 10}}, nil
	})

	ev := NewExternalEvaluator("co2", backend, WithPressure(5e6))
	assert.Equal(t, KindExternal, ev.Kind())

	row, err := ev.SetEnthalpy(420.0)
	require.NoError(t, err)
	assert.Equal(t, 42.0, row.Values[0])
	require.Len(t, seen, 1)
	assert.True(t, seen[0].HasPressure)
	assert.Equal(t, 5e6, seen[0].Pressure)

	noPressure := NewExternalEvaluator("co2", backend)
	_, err = noPressure.SetEnthalpy(1.0)
	require.NoError(t, err)
	assert.False(t, seen[1].HasPressure)
}

func TestExternalEvaluatorPropagatesBackendError(t *testing.T) {
	boom := errors.New("backend unavailable")
	ev := NewExternalEvaluator("co2", BackendFunc(func(State) (Row, error) { return Row{}, boom }))

	_, err := ev.SetEnthalpy(1.0)
	assert.ErrorIs(t, err, boom)
	_, err = ev.Properties()
	assert.ErrorIs(t, err, hxerr.ErrUninitialized)
}

func TestIncompressibleLiquid(t *testing.T) {
	ev := NewExternalEvaluator("water", Water25C)

	row, err := ev.SetEnthalpy(4181.0 * 25)
	require.NoError(t, err)
	temp, ok := row.Get("temperature")
	require.True(t, ok)
	assert.InDelta(t, 298.15, temp, 1e-9)
	rho, _ := row.Get("density")
	assert.Equal(t, 997.0, rho)

	_, err = ev.SetEnthalpy(-4181.0 * 300)
	assert.ErrorIs(t, err, hxerr.ErrInvalidInput)

	_, err = NewExternalEvaluator("water", Water25C, WithPressure(-1)).SetEnthalpy(0)
	assert.ErrorIs(t, err, hxerr.ErrInvalidInput)
}
