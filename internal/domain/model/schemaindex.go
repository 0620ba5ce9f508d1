package model

// SchemaIndex maps a table name to the ordered list of schemas containing a
// table with that name. It is rebuilt from scratch on every introspection.
type SchemaIndex map[string][]string

// Add appends schema to the entry for name.
func (idx SchemaIndex) Add(name, schema string) {
	idx[name] = append(idx[name], schema)
}

// IsDuplicate reports whether more than one schema contains a table named name.
func (idx SchemaIndex) IsDuplicate(name string) bool {
	return len(idx[name]) > 1
}

// Schemas returns the schemas recorded for name, in insertion order.
func (idx SchemaIndex) Schemas(name string) []string {
	return idx[name]
}
