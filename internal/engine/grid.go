package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"gridbase/internal/introspect"
	"gridbase/internal/store"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Limits carries the configured pagination bounds. The zero value falls back
// to the package defaults.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

func (l Limits) defaults() Limits {
	if l.DefaultPageSize < 1 {
		l.DefaultPageSize = DefaultPageSize
	}
	if l.MaxPageSize < 1 {
		l.MaxPageSize = MaxPageSize
	}
	return l
}

// GridRequest is a page of a table as the client asked for it: substring
// filters per column, one sort column, and pagination.
type GridRequest struct {
	Filters map[string]string
	Sort    string
	Order   string
	Page    int
	PerPage int
}

type GridPage struct {
	Rows    []map[string]any `json:"rows"`
	Total   int64            `json:"total"`
	Sort    string           `json:"sort"`
	Order   string           `json:"order"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// ResolveGrid normalizes a request against the table's metadata: the sort
// column must be a real column or it falls back to the first PK column, then
// the first declared column; order defaults to asc; page and page size are
// clamped to the configured bounds.
func ResolveGrid(meta *introspect.TableMeta, req GridRequest, lim Limits) GridRequest {
	lim = lim.defaults()
	order := strings.ToLower(req.Order)
	if order != "asc" && order != "desc" {
		order = "asc"
	}
	req.Order = order

	if req.Sort == "" || !meta.HasColumn(req.Sort) {
		if len(meta.PKColumns) > 0 {
			req.Sort = meta.PKColumns[0]
		} else if len(meta.Columns) > 0 {
			req.Sort = meta.Columns[0].Name
		}
	}

	if req.PerPage < 1 {
		req.PerPage = lim.DefaultPageSize
	}
	if req.PerPage > lim.MaxPageSize {
		req.PerPage = lim.MaxPageSize
	}
	if req.Page < 1 {
		req.Page = 1
	}
	return req
}

// BuildGridSelectSQL builds the page SELECT for a normalized request.
func BuildGridSelectSQL(schema, table string, meta *introspect.TableMeta, req GridRequest) QueryResult {
	pb := &paramBuilder{}
	where := buildFilterWhere(meta, req.Filters, pb)

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s %s LIMIT %s OFFSET %s",
		store.QualifiedTable(schema, table),
		where,
		store.QuoteIdent(req.Sort),
		strings.ToUpper(req.Order),
		pb.Add(req.PerPage),
		pb.Add((req.Page-1)*req.PerPage),
	)
	return QueryResult{SQL: sql, Params: pb.params}
}

// BuildGridCountSQL builds the COUNT query with the same filters as the page
// SELECT, ignoring pagination.
func BuildGridCountSQL(schema, table string, meta *introspect.TableMeta, req GridRequest) QueryResult {
	pb := &paramBuilder{}
	where := buildFilterWhere(meta, req.Filters, pb)

	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s",
		store.QualifiedTable(schema, table), where)
	return QueryResult{SQL: sql, Params: pb.params}
}

// buildFilterWhere turns the filter map into conjoined case-insensitive
// substring predicates. Only real columns participate; unknown filter keys
// are dropped, not rejected. Columns iterate in declared order so the built
// SQL is deterministic.
func buildFilterWhere(meta *introspect.TableMeta, filters map[string]string, pb *paramBuilder) string {
	var parts []string
	for _, c := range meta.Columns {
		pattern := strings.TrimSpace(filters[c.Name])
		if pattern == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s::text ILIKE %s",
			store.QuoteIdent(c.Name), pb.Add("%"+pattern+"%")))
	}
	if len(parts) == 0 {
		return "1=1"
	}
	return strings.Join(parts, " AND ")
}

// QueryGrid executes the page SELECT and the matching COUNT, returning the
// page of rows with the exact total. The two statements are not transactional
// with each other; a concurrent writer can skew the total by a row, which is
// acceptable for a human-facing grid.
func QueryGrid(ctx context.Context, pool *pgxpool.Pool, schema, table string, meta *introspect.TableMeta, req GridRequest, lim Limits) (*GridPage, error) {
	req = ResolveGrid(meta, req, lim)

	sel := BuildGridSelectSQL(schema, table, meta, req)
	rows, err := store.QueryRows(ctx, pool, sel.SQL, sel.Params...)
	if err != nil {
		return nil, fmt.Errorf("query %s.%s: %w", schema, table, err)
	}

	cnt := BuildGridCountSQL(schema, table, meta, req)
	var total int64
	if err := pool.QueryRow(ctx, cnt.SQL, cnt.Params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s.%s: %w", schema, table, err)
	}

	if rows == nil {
		rows = []map[string]any{}
	}
	return &GridPage{
		Rows:    rows,
		Total:   total,
		Sort:    req.Sort,
		Order:   req.Order,
		Page:    req.Page,
		PerPage: req.PerPage,
	}, nil
}
