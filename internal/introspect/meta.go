package introspect

// Column describes one column of a target table, in physical order.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"`
	Nullable bool   `json:"isNullable"`
	Default  string `json:"columnDefault,omitempty"`
}

// TableMeta pairs the column list of a table with its primary key columns.
type TableMeta struct {
	Columns   []Column
	PKColumns []string
}

// HasColumn reports whether name is a real column of the table. This is the
// allowlist gate for every caller-supplied column name.
func (m *TableMeta) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (m *TableMeta) Column(name string) *Column {
	for i := range m.Columns {
		if m.Columns[i].Name == name {
			return &m.Columns[i]
		}
	}
	return nil
}

func (m *TableMeta) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// PKSet returns the primary key columns as a set.
func (m *TableMeta) PKSet() map[string]bool {
	set := make(map[string]bool, len(m.PKColumns))
	for _, c := range m.PKColumns {
		set[c] = true
	}
	return set
}
