package models

// RawFeatures is user input after numeric coercion, before it is aligned
// with the reference schema.
type RawFeatures map[string]float64

// Schema is the ordered training-time column set.
type Schema struct {
	Columns []string
	index   map[string]int
}

// NewSchema builds a Schema. Callers validate uniqueness beforehand.
func NewSchema(columns []string) Schema {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		idx[c] = i
	}
	return Schema{Columns: columns, index: idx}
}

// Has reports whether name is a reference column.
func (s Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of reference columns.
func (s Schema) Len() int { return len(s.Columns) }

// FeatureRow is one model input row. Values[i] belongs to Columns[i] and
// Columns always equals the reference schema.
type FeatureRow struct {
	Columns []string
	Values  []float64
}

// Get returns the value for column name.
func (r FeatureRow) Get(name string) (float64, bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return 0, false
}

// Map returns the row as a name->value map.
func (r FeatureRow) Map() map[string]float64 {
	m := make(map[string]float64, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}
