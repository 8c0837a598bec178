package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gridbase/internal/introspect"
	"gridbase/internal/store"
)

// RowUpdate is one row of a batched save: the primary key identifying the row
// and the column values to apply.
type RowUpdate struct {
	PK      map[string]any `json:"pk"`
	Columns map[string]any `json:"columns"`
}

// BatchResult reports a batched write. When Errors is non-empty the whole
// transaction was rolled back and Affected is zero: a batch is all-or-nothing
// on the database even though errors are collected per row.
type BatchResult struct {
	Affected int64
	Errors   []ErrorDetail
}

// UpdateRows applies a batch of UPDATE-by-primary-key statements inside one
// transaction. Rows missing any PK column are collected as errors without
// aborting the scan; rows with no applicable update columns are silently
// skipped. Any error rolls back the entire batch.
func UpdateRows(ctx context.Context, pool *pgxpool.Pool, schema, table string, meta *introspect.TableMeta, rows []RowUpdate) (*BatchResult, error) {
	if len(meta.PKColumns) == 0 {
		return nil, ValidationError("table has no primary key")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	res := &BatchResult{}
	for _, row := range rows {
		if !hasAllPKs(row.PK, meta.PKColumns) {
			res.Errors = append(res.Errors, ErrorDetail{Row: row, Message: "invalid or missing primary key"})
			continue
		}
		stmt, ok := BuildUpdateSQL(schema, table, meta, row)
		if !ok {
			continue
		}
		affected, err := execInSavepoint(ctx, tx, stmt)
		if err != nil {
			res.Errors = append(res.Errors, ErrorDetail{Row: row, Message: err.Error()})
			continue
		}
		res.Affected += affected
	}

	if len(res.Errors) > 0 {
		res.Affected = 0
		return res, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// BuildUpdateSQL builds one UPDATE-by-PK statement. Only real non-PK columns
// from the row's column map are applied; returns ok=false when nothing is
// applicable.
func BuildUpdateSQL(schema, table string, meta *introspect.TableMeta, row RowUpdate) (QueryResult, bool) {
	pkSet := meta.PKSet()
	pb := &paramBuilder{}

	var setParts []string
	for _, c := range meta.Columns {
		if pkSet[c.Name] {
			continue
		}
		v, ok := row.Columns[c.Name]
		if !ok {
			continue
		}
		setParts = append(setParts, fmt.Sprintf("%s = %s",
			store.QuoteIdent(c.Name), pb.Add(CoerceValue(v, c.DataType))))
	}
	if len(setParts) == 0 {
		return QueryResult{}, false
	}

	var whereParts []string
	for _, k := range meta.PKColumns {
		whereParts = append(whereParts, fmt.Sprintf("%s = %s",
			store.QuoteIdent(k), pb.Add(coercePK(meta, k, row.PK[k]))))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		store.QualifiedTable(schema, table),
		strings.Join(setParts, ", "),
		strings.Join(whereParts, " AND "))
	return QueryResult{SQL: sql, Params: pb.params}, true
}

// PlanInsert decides which columns participate in an INSERT. Sequence-backed
// PK columns are omitted so the database assigns them; a non-sequence PK or a
// non-nullable column left empty fails validation; everything else empty is
// sent as NULL.
func PlanInsert(meta *introspect.TableMeta, seqPKs []string, input map[string]any) ([]string, []any, *AppError) {
	pkSet := meta.PKSet()
	seq := make(map[string]bool, len(seqPKs))
	for _, c := range seqPKs {
		seq[c] = true
	}

	var cols []string
	var vals []any
	for _, c := range meta.Columns {
		if seq[c.Name] {
			continue
		}
		v := input[c.Name]
		empty := isEmpty(v)
		if pkSet[c.Name] && empty {
			return nil, nil, ValidationError(fmt.Sprintf("primary key column %q is required (no sequence)", c.Name))
		}
		if empty && !c.Nullable {
			return nil, nil, ValidationError(fmt.Sprintf("non-nullable column %q requires a value", c.Name))
		}
		cols = append(cols, c.Name)
		if empty {
			vals = append(vals, nil)
		} else {
			vals = append(vals, CoerceValue(v, c.DataType))
		}
	}
	if len(cols) == 0 {
		return nil, nil, ValidationError("no columns to insert")
	}
	return cols, vals, nil
}

func BuildInsertSQL(schema, table string, cols []string, vals []any) QueryResult {
	pb := &paramBuilder{}
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = store.QuoteIdent(c)
		placeholders[i] = pb.Add(vals[i])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		store.QualifiedTable(schema, table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))
	return QueryResult{SQL: sql, Params: pb.params}
}

// InsertRow validates and executes a single-row INSERT in its own transaction.
func InsertRow(ctx context.Context, pool *pgxpool.Pool, schema, table string, meta *introspect.TableMeta, seqPKs []string, input map[string]any) error {
	cols, vals, appErr := PlanInsert(meta, seqPKs, input)
	if appErr != nil {
		return appErr
	}
	stmt := BuildInsertSQL(schema, table, cols, vals)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := store.Exec(ctx, tx, stmt.SQL, stmt.Params...); err != nil {
		return fmt.Errorf("insert %s.%s: %w", schema, table, err)
	}
	return tx.Commit(ctx)
}

// DeleteRows hard-deletes rows by primary key inside one transaction, with
// the same all-or-nothing semantics as UpdateRows.
func DeleteRows(ctx context.Context, pool *pgxpool.Pool, schema, table string, meta *introspect.TableMeta, pks []map[string]any) (*BatchResult, error) {
	if len(meta.PKColumns) == 0 {
		return nil, ValidationError("table has no primary key")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	res := &BatchResult{}
	for _, pk := range pks {
		if !hasAllPKs(pk, meta.PKColumns) {
			res.Errors = append(res.Errors, ErrorDetail{Row: pk, Message: "invalid or missing primary key"})
			continue
		}
		stmt := BuildDeleteSQL(schema, table, meta, pk)
		affected, err := execInSavepoint(ctx, tx, stmt)
		if err != nil {
			res.Errors = append(res.Errors, ErrorDetail{Row: pk, Message: err.Error()})
			continue
		}
		res.Affected += affected
	}

	if len(res.Errors) > 0 {
		res.Affected = 0
		return res, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func BuildDeleteSQL(schema, table string, meta *introspect.TableMeta, pk map[string]any) QueryResult {
	pb := &paramBuilder{}
	var whereParts []string
	for _, k := range meta.PKColumns {
		whereParts = append(whereParts, fmt.Sprintf("%s = %s",
			store.QuoteIdent(k), pb.Add(coercePK(meta, k, pk[k]))))
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s",
		store.QualifiedTable(schema, table), strings.Join(whereParts, " AND "))
	return QueryResult{SQL: sql, Params: pb.params}
}

// execInSavepoint runs one batch statement inside a savepoint so a failing
// row does not abort the surrounding transaction before the remaining rows
// have reported their own errors. The batch still commits or rolls back as a
// unit.
func execInSavepoint(ctx context.Context, tx pgx.Tx, stmt QueryResult) (int64, error) {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := store.Exec(ctx, sp, stmt.SQL, stmt.Params...)
	if err != nil {
		_ = sp.Rollback(ctx)
		return 0, err
	}
	if err := sp.Commit(ctx); err != nil {
		return 0, err
	}
	return affected, nil
}

func hasAllPKs(pk map[string]any, pkCols []string) bool {
	if pk == nil {
		return false
	}
	for _, k := range pkCols {
		if _, ok := pk[k]; !ok {
			return false
		}
	}
	return true
}

func coercePK(meta *introspect.TableMeta, col string, v any) any {
	if c := meta.Column(col); c != nil {
		return CoerceValue(v, c.DataType)
	}
	return v
}
