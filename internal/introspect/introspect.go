// Package introspect discovers schemas, tables, columns, and primary keys of
// registered databases at runtime via information_schema. Results are cached
// briefly; pass refresh=true to bypass the cache.
package introspect

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"gridbase/internal/cache"
	"gridbase/internal/store"
)

// PoolProvider resolves a connection alias to its live pool.
type PoolProvider interface {
	Pool(alias string) (*pgxpool.Pool, error)
}

type Service struct {
	pools PoolProvider
	cache *cache.Cache
}

func NewService(pools PoolProvider, c *cache.Cache) *Service {
	return &Service{pools: pools, cache: c}
}

const schemasSQL = `
SELECT schema_name
FROM information_schema.schemata
WHERE schema_name NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
AND schema_name NOT LIKE 'pg_%'
ORDER BY schema_name`

const tablesSQL = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1
AND table_type = 'BASE TABLE'
ORDER BY table_name`

const columnsSQL = `
SELECT column_name, data_type, is_nullable, column_default
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

const pkSQL = `
SELECT kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
    ON tc.constraint_name = kcu.constraint_name
    AND tc.table_schema = kcu.table_schema
    AND tc.table_name = kcu.table_name
WHERE tc.table_schema = $1 AND tc.table_name = $2
AND tc.constraint_type = 'PRIMARY KEY'
ORDER BY kcu.ordinal_position`

// ListSchemas returns schema names for a connection, excluding system schemas.
func (s *Service) ListSchemas(ctx context.Context, alias string, refresh bool) ([]string, error) {
	key := cache.Key("schemas", alias)
	if !refresh {
		if v, ok := s.cache.Get(key); ok {
			if names, ok := v.([]string); ok {
				return names, nil
			}
		}
	}

	names, err := s.queryStrings(ctx, alias, "list schemas", schemasSQL)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, names)
	return names, nil
}

// ListTables returns base-table names in the given schema. Views excluded.
func (s *Service) ListTables(ctx context.Context, alias, schema string, refresh bool) ([]string, error) {
	key := cache.Key("tables", alias, schema)
	if !refresh {
		if v, ok := s.cache.Get(key); ok {
			if names, ok := v.([]string); ok {
				return names, nil
			}
		}
	}

	names, err := s.queryStrings(ctx, alias, "list tables", tablesSQL, schema)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, names)
	return names, nil
}

// ListColumns returns column metadata in physical column order.
func (s *Service) ListColumns(ctx context.Context, alias, schema, table string, refresh bool) ([]Column, error) {
	key := cache.Key("columns", alias, schema, table)
	if !refresh {
		if v, ok := s.cache.Get(key); ok {
			if cols, ok := v.([]Column); ok {
				return cols, nil
			}
		}
	}

	pool, err := s.pools.Pool(alias)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, columnsSQL, schema, table)
	if err != nil {
		return nil, &QueryFailedError{Op: "list columns", Err: err}
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var nullable string
		var def *string
		if err := rows.Scan(&c.Name, &c.DataType, &nullable, &def); err != nil {
			return nil, &QueryFailedError{Op: "list columns", Err: err}
		}
		c.Nullable = nullable == "YES"
		if def != nil {
			c.Default = *def
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryFailedError{Op: "list columns", Err: err}
	}

	s.cache.Set(key, cols)
	return cols, nil
}

// PrimaryKeyColumns returns the PK column names in key position order.
func (s *Service) PrimaryKeyColumns(ctx context.Context, alias, schema, table string, refresh bool) ([]string, error) {
	key := cache.Key("pk", alias, schema, table)
	if !refresh {
		if v, ok := s.cache.Get(key); ok {
			if names, ok := v.([]string); ok {
				return names, nil
			}
		}
	}

	names, err := s.queryStrings(ctx, alias, "list primary key", pkSQL, schema, table)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, names)
	return names, nil
}

// TableMeta returns columns and PK columns together. Shares the same cache
// entries as ListColumns/PrimaryKeyColumns, no extra cache scope.
func (s *Service) TableMeta(ctx context.Context, alias, schema, table string, refresh bool) (*TableMeta, error) {
	cols, err := s.ListColumns(ctx, alias, schema, table, refresh)
	if err != nil {
		return nil, err
	}
	pks, err := s.PrimaryKeyColumns(ctx, alias, schema, table, refresh)
	if err != nil {
		return nil, err
	}
	return &TableMeta{Columns: cols, PKColumns: pks}, nil
}

// SequencePKColumns returns the PK columns whose default expression advances a
// sequence. These are omitted from INSERT payloads so the database assigns
// their values.
func (s *Service) SequencePKColumns(ctx context.Context, alias, schema, table string, refresh bool) ([]string, error) {
	meta, err := s.TableMeta(ctx, alias, schema, table, refresh)
	if err != nil {
		return nil, err
	}
	return SequenceBackedPKs(meta), nil
}

// SequenceBackedPKs picks the sequence-backed PK columns out of a TableMeta,
// in declared column order.
func SequenceBackedPKs(meta *TableMeta) []string {
	pkSet := meta.PKSet()
	result := make([]string, 0)
	for _, c := range meta.Columns {
		if !pkSet[c.Name] {
			continue
		}
		if strings.Contains(strings.ToLower(c.Default), "nextval") {
			result = append(result, c.Name)
		}
	}
	return result
}

// CreateSchema validates the name and issues an idempotent CREATE SCHEMA,
// invalidating the schema list for the connection on success.
func (s *Service) CreateSchema(ctx context.Context, alias, name string) error {
	if err := ValidateSchemaName(name); err != nil {
		return err
	}
	pool, err := s.pools.Pool(alias)
	if err != nil {
		return err
	}

	n := strings.TrimSpace(name)
	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+store.QuoteIdent(n)); err != nil {
		return &QueryFailedError{Op: "create schema", Err: err}
	}

	s.cache.Delete(cache.Key("schemas", alias))
	return nil
}

// DropSchema drops a schema. Without force it refuses when the schema still
// contains tables; with force it cascades. The table list is re-read from the
// database first; destructive gating never trusts the cache.
func (s *Service) DropSchema(ctx context.Context, alias, name string, force bool) error {
	if err := ValidateSchemaName(name); err != nil {
		return err
	}
	n := strings.TrimSpace(name)

	tables, err := s.ListTables(ctx, alias, n, true)
	if err != nil {
		return err
	}
	if len(tables) > 0 && !force {
		return &SchemaNotEmptyError{Schema: n, TableCount: len(tables)}
	}

	pool, err := s.pools.Pool(alias)
	if err != nil {
		return err
	}
	sql := "DROP SCHEMA IF EXISTS " + store.QuoteIdent(n)
	if force {
		sql += " CASCADE"
	}
	if _, err := pool.Exec(ctx, sql); err != nil {
		return &QueryFailedError{Op: "drop schema", Err: err}
	}

	// No prefix invalidation: delete the schema list plus every entry for the
	// tables we just enumerated. Entries cached for tables created during the
	// drop ride out their TTL.
	s.cache.Delete(cache.Key("schemas", alias))
	s.cache.Delete(cache.Key("tables", alias, n))
	for _, t := range tables {
		s.cache.Delete(cache.Key("columns", alias, n, t))
		s.cache.Delete(cache.Key("pk", alias, n, t))
	}
	return nil
}

// SchemaHasTables reports whether the schema currently contains any tables.
// Always bypasses the cache; callers gate destructive actions on this.
func (s *Service) SchemaHasTables(ctx context.Context, alias, schema string) (bool, error) {
	tables, err := s.ListTables(ctx, alias, schema, true)
	if err != nil {
		return false, err
	}
	return len(tables) > 0, nil
}

func (s *Service) queryStrings(ctx context.Context, alias, op, sql string, args ...any) ([]string, error) {
	pool, err := s.pools.Pool(alias)
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryFailedError{Op: op, Err: err}
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, &QueryFailedError{Op: op, Err: err}
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryFailedError{Op: op, Err: err}
	}
	return names, nil
}
