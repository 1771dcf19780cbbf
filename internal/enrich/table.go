package enrich

// Row maps column names to cell values. The engine never mutates a Row it
// received; transformations produce new rows.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered sequence of rows sharing a common column set. Position in
// Rows is the only correlation key between an input and an output table.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// AppendRow adds a row built from values in column order. Missing trailing
// values are left unset.
func (t *Table) AppendRow(values ...any) {
	row := make(Row, len(t.Columns))
	for i, col := range t.Columns {
		if i < len(values) {
			row[col] = values[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns the values of one column in row order.
func (t *Table) Column(name string) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}
