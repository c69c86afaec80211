package csvio

// Row maps column name to cell value. A missing key is a null cell; an empty
// string is a present but empty value. The distinction matters for the
// storage backfill and the first-value aggregation.
type Row map[string]string

// Table is a fully materialized ordered table. Column order is preserved
// through every transformation so that output files are deterministic.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given column order.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// HasColumn reports whether the table declares the column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn declares a new column at the end of the column order. Declaring
// an existing column is a no-op.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// DropColumn removes the column and its cells from every row.
func (t *Table) DropColumn(name string) {
	cols := t.Columns[:0]
	for _, c := range t.Columns {
		if c != name {
			cols = append(cols, c)
		}
	}
	t.Columns = cols
	for _, row := range t.Rows {
		delete(row, name)
	}
}

// RenameColumn renames a column in place, keeping its position.
func (t *Table) RenameColumn(from, to string) {
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
		}
	}
	for _, row := range t.Rows {
		if v, ok := row[from]; ok {
			delete(row, from)
			row[to] = v
		}
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		dup := make(Row, len(row))
		for k, v := range row {
			dup[k] = v
		}
		out.Rows[i] = dup
	}
	return out
}

// Reindex filters and reorders the table's columns to match template.
// Columns absent from the template are dropped; template columns absent from
// the data become empty cells. This mirrors a template-based reindex and is
// deliberately silent about mismatches.
func (t *Table) Reindex(template []string) *Table {
	out := NewTable(template)
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		dup := make(Row, len(template))
		for _, c := range template {
			if v, ok := row[c]; ok {
				dup[c] = v
			} else {
				dup[c] = ""
			}
		}
		out.Rows[i] = dup
	}
	return out
}
