package engine

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/j-emberton/HXforge/internal/hxerr"
	"github.com/labstack/gommon/log"
	"github.com/zeebo/xxh3"
)

// DuplicatePolicy decides what the loader does with repeated keys.
type DuplicatePolicy int

const (
	DuplicateReject DuplicatePolicy = iota
	DuplicateKeepFirst
	DuplicateKeepLast
)

func (p DuplicatePolicy) String() string {
	switch p {
	case DuplicateReject:
		return "reject"
	case DuplicateKeepFirst:
		return "keep-first"
	case DuplicateKeepLast:
		return "keep-last"
	default:
		return "unknown"
	}
}

// ParseDuplicatePolicy accepts the names produced by String.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "reject":
		return DuplicateReject, nil
	case "keep-first":
		return DuplicateKeepFirst, nil
	case "keep-last":
		return DuplicateKeepLast, nil
	}
	return 0, fmt.Errorf("unknown duplicate policy %q", s)
}

const DefaultKeyColumn = "enthalpy"

// LoadOptions controls how a table resource is parsed.
type LoadOptions struct {
	Delimiter  byte   // default '\t'
	KeyColumn  string // default "enthalpy"
	Duplicates DuplicatePolicy
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Delimiter == 0 {
		o.Delimiter = '\t'
	}
	if o.KeyColumn == "" {
		o.KeyColumn = DefaultKeyColumn
	}
	return o
}

// Load resolves fluid to a resource and parses it into a Table.
func Load(r Resolver, fluid string, opts LoadOptions) (*Table, error) {
	start := time.Now()

	rc, err := r.Open(fluid)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, hxerr.NotFound(fluid, err)
	}

	t, err := Parse(fluid, content, opts)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded fluid table %q: rows=%d columns=%d time=%v", fluid, t.Len(), len(t.columns), time.Since(start))
	return t, nil
}

type parsedRow struct {
	key  float64
	line int
	vals []float64
}

// Parse builds a Table from a header-delimited text resource.
func Parse(fluid string, content []byte, opts LoadOptions) (*Table, error) {
	opts = opts.withDefaults()
	schemaErr := func(line int, col, format string, args ...any) error {
		return &hxerr.SchemaError{Fluid: fluid, Line: line, Column: col, Reason: fmt.Sprintf(format, args...)}
	}

	// --- 1. HEADER ---
	lineNo := 0
	var header []string
	rest := content
	for len(rest) > 0 && header == nil {
		var line []byte
		line, rest = nextLine(rest)
		lineNo++
		if skipLine(line) {
			continue
		}
		header = splitFields(line, opts.Delimiter)
	}
	if header == nil {
		return nil, schemaErr(0, "", "resource is empty")
	}

	keyIdx := -1
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		if h == "" {
			return nil, schemaErr(lineNo, "", "header field %d is empty", i+1)
		}
		if seen[h] {
			return nil, schemaErr(lineNo, h, "column appears more than once")
		}
		seen[h] = true
		if h == opts.KeyColumn {
			keyIdx = i
		}
	}
	if keyIdx < 0 {
		return nil, schemaErr(lineNo, opts.KeyColumn, "key column missing from header")
	}

	columns := make([]string, 0, len(header)-1)
	for i, h := range header {
		if i != keyIdx {
			columns = append(columns, h)
		}
	}

	// --- 2. ROWS ---
	var rows []parsedRow
	for len(rest) > 0 {
		var line []byte
		line, rest = nextLine(rest)
		lineNo++
		if skipLine(line) {
			continue
		}

		fields := splitFields(line, opts.Delimiter)
		if len(fields) != len(header) {
			return nil, schemaErr(lineNo, "", "expected %d fields, got %d", len(header), len(fields))
		}

		row := parsedRow{line: lineNo, vals: make([]float64, 0, len(columns))}
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, schemaErr(lineNo, header[i], "non-numeric value %q", f)
			}
			if i == keyIdx {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return nil, schemaErr(lineNo, header[i], "key %q is not finite", f)
				}
				row.key = v
				continue
			}
			row.vals = append(row.vals, v)
		}
		rows = append(rows, row)
	}

	// --- 3. SORT + DEDUPLICATE ---
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].key < rows[j].key })

	kept := rows[:0]
	for _, r := range rows {
		n := len(kept)
		if n == 0 || kept[n-1].key != r.key {
			kept = append(kept, r)
			continue
		}
		switch opts.Duplicates {
		case DuplicateKeepFirst:
			// stable sort keeps source order, so the earlier row is already in place
		case DuplicateKeepLast:
			kept[n-1] = r
		default:
			return nil, schemaErr(r.line, opts.KeyColumn, "duplicate key %g (first seen at line %d)", r.key, kept[n-1].line)
		}
	}

	// --- 4. COLUMNAR BUILD ---
	keys := make([]float64, len(kept))
	cols := make([][]float64, len(columns))
	for j := range cols {
		cols[j] = make([]float64, len(kept))
	}
	for i, r := range kept {
		keys[i] = r.key
		for j, v := range r.vals {
			cols[j][i] = v
		}
	}

	return newTable(fluid, opts.KeyColumn, columns, keys, cols, xxh3.Hash(content)), nil
}

func nextLine(b []byte) (line, rest []byte) {
	if i := bytes.IndexByte(b, '\n'); i != -1 {
		line, rest = b[:i], b[i+1:]
	} else {
		line, rest = b, nil
	}
	return bytes.TrimSuffix(line, []byte{'\r'}), rest
}

func skipLine(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	return len(trimmed) == 0 || trimmed[0] == '#'
}

func splitFields(line []byte, delim byte) []string {
	sep := []byte{delim}
	var out []string
	rest := line
	for {
		field, tail, found := bytes.Cut(rest, sep)
		out = append(out, string(bytes.TrimSpace(field)))
		if !found {
			return out
		}
		rest = tail
	}
}
