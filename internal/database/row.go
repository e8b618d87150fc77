package database

// Row is one record as returned by the data store. Column order is the order of
// the select list; Set appends unknown columns at the end.
type Row struct {
	columns []string
	values  map[string]any
}

func NewRow(columns []string, values []any) Row {
	row := Row{
		columns: make([]string, 0, len(columns)),
		values:  make(map[string]any, len(columns)),
	}
	for i, column := range columns {
		var value any
		if i < len(values) {
			value = values[i]
		}
		row.Set(column, value)
	}
	return row
}

func (r Row) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

func (r Row) Get(column string) (any, bool) {
	value, ok := r.values[column]
	return value, ok
}

func (r *Row) Set(column string, value any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[column]; !ok {
		r.columns = append(r.columns, column)
	}
	r.values[column] = value
}

func (r Row) Len() int {
	return len(r.columns)
}

// Values returns the values in column order.
func (r Row) Values() []any {
	out := make([]any, len(r.columns))
	for i, column := range r.columns {
		out[i] = r.values[column]
	}
	return out
}
