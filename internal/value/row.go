package value

import "sort"

// Row is an ordered mapping from column name to Value.
// Column names are unique; setting an existing column replaces its value
// in place.
type Row struct {
	columns []string
	values  map[string]Value
}

// NewRow creates an empty row with room for n columns.
func NewRow(n int) Row {
	return Row{
		columns: make([]string, 0, n),
		values:  make(map[string]Value, n),
	}
}

// FromMap builds a row from plain Go values. Columns are sorted by name.
func FromMap(m map[string]any) Row {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	row := NewRow(len(names))
	for _, name := range names {
		row.Set(name, FromGo(m[name]))
	}
	return row
}

// Set assigns v to column name, appending the column if it is new.
func (r *Row) Set(name string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.columns = append(r.columns, name)
	}
	r.values[name] = v
}

// Get returns the value of column name and whether the column exists.
func (r Row) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Value returns the value of column name, or null when it is absent.
func (r Row) Value(name string) Value {
	return r.values[name]
}

// Has reports whether the row has column name.
func (r Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Columns returns the column names in order. The slice must not be modified.
func (r Row) Columns() []string {
	return r.columns
}

// Len returns the number of columns.
func (r Row) Len() int {
	return len(r.columns)
}

// With returns a copy of r with column name set to v. r is not modified.
func (r Row) With(name string, v Value) Row {
	c := r.Clone()
	c.Set(name, v)
	return c
}

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	c := NewRow(len(r.columns) + 2)
	for _, name := range r.columns {
		c.Set(name, r.values[name])
	}
	return c
}

// Map returns the row as plain Go values, for JSON output.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for _, name := range r.columns {
		m[name] = r.values[name].Any()
	}
	return m
}
