package store

import "strings"

// QuoteIdent makes a raw identifier safe for direct interpolation into SQL
// text by double-quoting it and doubling any embedded quote characters.
// Object names cannot be bound as statement parameters, so every schema,
// table, and column name that reaches SQL text goes through here, including
// names already validated against the introspected allowlist.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QualifiedTable returns the quoted schema.table pair.
func QualifiedTable(schema, table string) string {
	return QuoteIdent(schema) + "." + QuoteIdent(table)
}
