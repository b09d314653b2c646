package engine

import (
	"bytes"
	"testing"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/j-emberton/HXforge/internal/hxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepMatchesPointwise(t *testing.T) {
	table, err := Parse("water", []byte(waterTSV), LoadOptions{})
	require.NoError(t, err)

	points, err := Sweep(table, 100, 300, 41, BoundsStrict)
	require.NoError(t, err)
	require.Len(t, points, 41)

	assert.Equal(t, 100.0, points[0].Enthalpy)
	assert.Equal(t, 300.0, points[40].Enthalpy)
	for _, p := range points {
		row, err := table.Interpolate(p.Enthalpy)
		require.NoError(t, err)
		assert.Equal(t, row.Values, p.Values)
	}
}

func TestSweepErrors(t *testing.T) {
	table := densityTable(t)

	_, err := Sweep(table, 50, 150, 10, BoundsStrict)
	assert.ErrorIs(t, err, hxerr.ErrOutOfRange)

	_, err = Sweep(table, 100, 200, 1, BoundsStrict)
	assert.ErrorIs(t, err, hxerr.ErrInvalidInput)

	_, err = Sweep(table, 100, 200, MaxSweepSteps+1, BoundsStrict)
	assert.ErrorIs(t, err, hxerr.ErrInvalidInput)

	points, err := Sweep(table, 50, 150, 3, BoundsClamp)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, points[0].Values[0])
}

func TestWriteArrowRoundTrip(t *testing.T) {
	table, err := Parse("water", []byte(waterTSV), LoadOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, table))

	rdr, err := ipc.NewReader(&buf)
	require.NoError(t, err)
	defer rdr.Release()

	schema := rdr.Schema()
	require.Equal(t, 3, schema.NumFields())
	assert.Equal(t, "enthalpy", schema.Field(0).Name)
	assert.Equal(t, "density", schema.Field(1).Name)
	fluid, ok := schema.Metadata().GetValue("fluid")
	assert.True(t, ok)
	assert.Equal(t, "water", fluid)

	require.True(t, rdr.Next())
	rec := rdr.Record()
	assert.Equal(t, int64(3), rec.NumRows())
	assert.Equal(t, []float64{100, 200, 300}, rec.Column(0).(*array.Float64).Float64Values())
	assert.Equal(t, []float64{1000, 900, 850}, rec.Column(1).(*array.Float64).Float64Values())
	assert.False(t, rdr.Next())
}
