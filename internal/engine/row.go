package engine

// Row is a named vector of property values for one enthalpy.
// Names is shared with the table it came from and must not be modified.
type Row struct {
	Enthalpy float64
	Names    []string
	Values   []float64
}

func (r Row) Len() int { return len(r.Values) }

// Get returns the value of the named property.
func (r Row) Get(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Map copies the row into a name -> value map.
func (r Row) Map() map[string]float64 {
	m := make(map[string]float64, len(r.Names))
	for i, n := range r.Names {
		m[n] = r.Values[i]
	}
	return m
}
