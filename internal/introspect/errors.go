package introspect

import (
	"errors"
	"fmt"
)

var ErrEmptySchemaName = errors.New("schema name cannot be empty")

// InvalidSchemaNameError rejects names outside the letters/digits/underscore
// identifier subset the editor allows for user-created schemas.
type InvalidSchemaNameError struct {
	Name string
}

func (e *InvalidSchemaNameError) Error() string {
	return fmt.Sprintf("invalid schema name %q: only letters, numbers, and underscores are allowed", e.Name)
}

// SystemSchemaError rejects attempts to create or drop a catalog-reserved schema.
type SystemSchemaError struct {
	Name string
}

func (e *SystemSchemaError) Error() string {
	return fmt.Sprintf("%q is a reserved system schema", e.Name)
}

// SchemaNotEmptyError is returned when dropping a schema that still contains
// tables without force.
type SchemaNotEmptyError struct {
	Schema     string
	TableCount int
}

func (e *SchemaNotEmptyError) Error() string {
	return fmt.Sprintf("schema %q contains %d table(s); drop with force to remove them", e.Schema, e.TableCount)
}

// QueryFailedError wraps any database-level introspection failure with the
// operation that hit it. The underlying message is preserved for the caller.
type QueryFailedError struct {
	Op  string
	Err error
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryFailedError) Unwrap() error {
	return e.Err
}
