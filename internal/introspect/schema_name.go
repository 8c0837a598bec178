package introspect

import "strings"

var systemSchemas = map[string]bool{
	"pg_catalog":         true,
	"information_schema": true,
	"pg_toast":           true,
}

// IsSystemSchema reports whether name is catalog-reserved. Case-insensitive.
// Shared by every entry point that validates a schema name: create, drop,
// and the connection config form.
func IsSystemSchema(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return systemSchemas[n] || strings.HasPrefix(n, "pg_")
}

// ValidateSchemaName checks a user-supplied schema name before any DDL is
// built from it.
func ValidateSchemaName(name string) error {
	n := strings.TrimSpace(name)
	if n == "" {
		return ErrEmptySchemaName
	}
	for _, r := range n {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return &InvalidSchemaNameError{Name: name}
		}
	}
	if IsSystemSchema(n) {
		return &SystemSchemaError{Name: name}
	}
	return nil
}
