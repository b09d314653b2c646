package engine

import (
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
)

// Schema returns the Arrow schema of the table, key column first.
func (t *Table) Schema() *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.columns)+1)
	fields = append(fields, arrow.Field{Name: t.keyName, Type: arrow.PrimitiveTypes.Float64})
	for _, c := range t.columns {
		fields = append(fields, arrow.Field{Name: c, Type: arrow.PrimitiveTypes.Float64})
	}
	md := arrow.NewMetadata(
		[]string{"fluid", "checksum"},
		[]string{t.fluid, strconv.FormatUint(t.checksum, 16)},
	)
	return arrow.NewSchema(fields, &md)
}

// Record exposes the table as an Arrow record sharing the table's columns.
// The caller must Release it.
func (t *Table) Record() arrow.Record {
	cols := make([]arrow.Array, 0, len(t.values)+1)
	cols = append(cols, t.keys)
	for _, c := range t.values {
		cols = append(cols, c)
	}
	return array.NewRecord(t.Schema(), cols, int64(t.Len()))
}

// WriteArrow streams t to w in the Arrow IPC stream format.
func WriteArrow(w io.Writer, t *Table) error {
	rec := t.Record()
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()))
	if err := iw.Write(rec); err != nil {
		iw.Close()
		return fmt.Errorf("write arrow record for %q: %w", t.fluid, err)
	}
	return iw.Close()
}
