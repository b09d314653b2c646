package engine

import (
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// Table holds a fluid's property data in Struct-of-Arrays format.
// Keys are strictly ascending; every column has one value per key.
// A Table never changes after it is built, so it can be read from any
// number of goroutines.
type Table struct {
	fluid    string
	keyName  string
	columns  []string
	checksum uint64

	// Data Columns (Arrow, Go allocator)
	keys   *array.Float64
	values []*array.Float64
}

// newTable builds the Arrow columns. keys must already be sorted and unique,
// cols[j] holds column j aligned with keys.
func newTable(fluid, keyName string, columns []string, keys []float64, cols [][]float64, checksum uint64) *Table {
	mem := memory.DefaultAllocator
	t := &Table{
		fluid:    fluid,
		keyName:  keyName,
		columns:  columns,
		checksum: checksum,
		keys:     buildFloat64(mem, keys),
		values:   make([]*array.Float64, len(cols)),
	}
	for j, c := range cols {
		t.values[j] = buildFloat64(mem, c)
	}
	return t
}

func buildFloat64(mem memory.Allocator, vals []float64) *array.Float64 {
	b := array.NewFloat64Builder(mem)
	defer b.Release()
	b.AppendValues(vals, nil)
	return b.NewFloat64Array()
}

func (t *Table) Fluid() string     { return t.fluid }
func (t *Table) KeyColumn() string { return t.keyName }
func (t *Table) Len() int          { return t.keys.Len() }

// Columns returns the property column names in header order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Checksum is the xxh3 hash of the resource the table was parsed from.
func (t *Table) Checksum() uint64 { return t.checksum }

// Keys returns the sorted key column. The slice aliases table memory; do not modify it.
func (t *Table) Keys() []float64 { return t.keys.Float64Values() }

// Bounds returns the smallest and largest key. ok is false for an empty table.
func (t *Table) Bounds() (lo, hi float64, ok bool) {
	k := t.Keys()
	if len(k) == 0 {
		return 0, 0, false
	}
	return k[0], k[len(k)-1], true
}

// Row returns the stored row at index i.
func (t *Table) Row(i int) Row {
	vals := make([]float64, len(t.values))
	for j, c := range t.values {
		vals[j] = c.Value(i)
	}
	return Row{Enthalpy: t.keys.Value(i), Names: t.columns, Values: vals}
}
