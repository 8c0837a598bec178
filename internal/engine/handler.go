package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"gridbase/internal/dbconn"
	"gridbase/internal/introspect"
	"gridbase/internal/store"
)

type Handler struct {
	registry  *dbconn.Registry
	inspector *introspect.Service
	limits    Limits
}

func NewHandler(reg *dbconn.Registry, insp *introspect.Service, lim Limits) *Handler {
	return &Handler{registry: reg, inspector: insp, limits: lim}
}

// ListSchemas handles GET /api/connections/:alias/schemas
func (h *Handler) ListSchemas(c *fiber.Ctx) error {
	alias, _, err := h.resolveAlias(c)
	if err != nil {
		return err
	}

	names, err := h.inspector.ListSchemas(c.Context(), alias, refreshParam(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"data": names})
}

// CreateSchema handles POST /api/connections/:alias/schemas
func (h *Handler) CreateSchema(c *fiber.Ctx) error {
	alias, _, err := h.resolveAlias(c)
	if err != nil {
		return err
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError("Invalid JSON body")
	}

	if err := h.inspector.CreateSchema(c.Context(), alias, body.Name); err != nil {
		return mapError(err)
	}
	return c.Status(201).JSON(fiber.Map{"data": fiber.Map{"schema": strings.TrimSpace(body.Name)}})
}

// DropSchema handles DELETE /api/connections/:alias/schemas/:schema
func (h *Handler) DropSchema(c *fiber.Ctx) error {
	alias, _, err := h.resolveAlias(c)
	if err != nil {
		return err
	}

	schema := c.Params("schema")
	force := c.QueryBool("force")
	if err := h.inspector.DropSchema(c.Context(), alias, schema, force); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"schema": schema, "dropped": true}})
}

// ListTables handles GET /api/connections/:alias/schemas/:schema/tables
func (h *Handler) ListTables(c *fiber.Ctx) error {
	alias, schema, _, err := h.resolveSchema(c)
	if err != nil {
		return err
	}

	names, err := h.inspector.ListTables(c.Context(), alias, schema, refreshParam(c))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"data": names})
}

// GetRows handles GET /api/connections/:alias/schemas/:schema/tables/:table/rows
func (h *Handler) GetRows(c *fiber.Ctx) error {
	tc, err := h.resolveTable(c)
	if err != nil {
		return err
	}

	req := GridRequest{
		Filters: parseFilters(c),
		Sort:    c.Query("sort"),
		Order:   c.Query("order"),
		Page:    c.QueryInt("page"),
		PerPage: c.QueryInt("per_page"),
	}
	page, err := QueryGrid(c.Context(), tc.pool, tc.schema, tc.table, tc.meta, req, h.limits)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(fiber.Map{
		"data": page.Rows,
		"meta": fiber.Map{
			"page":     page.Page,
			"per_page": page.PerPage,
			"total":    page.Total,
			"sort":     page.Sort,
			"order":    page.Order,
		},
	})
}

// SaveRows handles PUT /api/connections/:alias/schemas/:schema/tables/:table/rows
func (h *Handler) SaveRows(c *fiber.Ctx) error {
	tc, err := h.resolveTable(c)
	if err != nil {
		return err
	}

	var body struct {
		Rows []RowUpdate `json:"rows"`
	}
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError("Invalid JSON body")
	}
	if len(body.Rows) == 0 {
		return InvalidPayloadError("No rows to save")
	}

	res, err := UpdateRows(c.Context(), tc.pool, tc.schema, tc.table, tc.meta, body.Rows)
	if err != nil {
		return mapError(err)
	}
	if len(res.Errors) > 0 {
		return BatchError(res.Errors)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": res.Affected}})
}

// CreateRow handles POST /api/connections/:alias/schemas/:schema/tables/:table/rows
func (h *Handler) CreateRow(c *fiber.Ctx) error {
	tc, err := h.resolveTable(c)
	if err != nil {
		return err
	}

	var body struct {
		Columns map[string]any `json:"columns"`
	}
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError("Invalid JSON body")
	}
	if body.Columns == nil {
		return InvalidPayloadError("Missing columns")
	}

	seqPKs := introspect.SequenceBackedPKs(tc.meta)
	if err := InsertRow(c.Context(), tc.pool, tc.schema, tc.table, tc.meta, seqPKs, body.Columns); err != nil {
		return mapError(err)
	}
	return c.Status(201).JSON(fiber.Map{"data": fiber.Map{"inserted": 1}})
}

// DeleteRows handles POST /api/connections/:alias/schemas/:schema/tables/:table/rows/delete
func (h *Handler) DeleteRows(c *fiber.Ctx) error {
	tc, err := h.resolveTable(c)
	if err != nil {
		return err
	}

	var body struct {
		PKs []map[string]any `json:"pks"`
	}
	if err := c.BodyParser(&body); err != nil {
		return InvalidPayloadError("Invalid JSON body")
	}
	if len(body.PKs) == 0 {
		return InvalidPayloadError("No rows to delete")
	}

	res, err := DeleteRows(c.Context(), tc.pool, tc.schema, tc.table, tc.meta, body.PKs)
	if err != nil {
		return mapError(err)
	}
	if len(res.Errors) > 0 {
		return BatchError(res.Errors)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": res.Affected}})
}

type tableCtx struct {
	alias  string
	schema string
	table  string
	pool   *pgxpool.Pool
	meta   *introspect.TableMeta
}

// resolveAlias returns the alias from the path with the caller's live pool
// behind it, ensuring the owner's stored connection on first touch. A live
// pool is only reused when it belongs to the caller; another user's alias
// resolves through the owner-scoped store lookup and fails as not found.
func (h *Handler) resolveAlias(c *fiber.Ctx) (string, *pgxpool.Pool, error) {
	alias := c.Params("alias")
	owner := userID(c)

	pool, err := h.registry.OwnedPool(alias, owner)
	if err == nil {
		return alias, pool, nil
	}
	var unknown *dbconn.UnknownAliasError
	if !errors.As(err, &unknown) {
		return "", nil, mapError(err)
	}

	if err := h.registry.Ensure(c.Context(), alias, owner); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, dbconn.ErrReservedAlias) {
			return "", nil, NotFoundError("connection", alias)
		}
		return "", nil, mapError(err)
	}
	pool, err = h.registry.OwnedPool(alias, owner)
	if err != nil {
		return "", nil, mapError(err)
	}
	return alias, pool, nil
}

// resolveSchema checks the schema against the connection's live schema list
// before anything else touches it.
func (h *Handler) resolveSchema(c *fiber.Ctx) (string, string, *pgxpool.Pool, error) {
	alias, pool, err := h.resolveAlias(c)
	if err != nil {
		return "", "", nil, err
	}
	schema := c.Params("schema")

	schemas, err := h.inspector.ListSchemas(c.Context(), alias, refreshParam(c))
	if err != nil {
		return "", "", nil, mapError(err)
	}
	if !contains(schemas, schema) {
		return "", "", nil, NotFoundError("schema", schema)
	}
	return alias, schema, pool, nil
}

// resolveTable runs the full allowlist chain: live connection, schema in the
// schema list, table in the table list, then the table's metadata. No SQL is
// built against a name that did not come back from introspection.
func (h *Handler) resolveTable(c *fiber.Ctx) (*tableCtx, error) {
	alias, schema, pool, err := h.resolveSchema(c)
	if err != nil {
		return nil, err
	}
	table := c.Params("table")
	refresh := refreshParam(c)

	tables, err := h.inspector.ListTables(c.Context(), alias, schema, refresh)
	if err != nil {
		return nil, mapError(err)
	}
	if !contains(tables, table) {
		return nil, NotFoundError("table", table)
	}

	meta, err := h.inspector.TableMeta(c.Context(), alias, schema, table, refresh)
	if err != nil {
		return nil, mapError(err)
	}
	return &tableCtx{alias: alias, schema: schema, table: table, pool: pool, meta: meta}, nil
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

func refreshParam(c *fiber.Ctx) bool {
	return c.QueryBool("refresh")
}

// parseFilters collects filter[column]=pattern query params.
func parseFilters(c *fiber.Ctx) map[string]string {
	filters := make(map[string]string)
	for key, val := range c.Queries() {
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") {
			col := key[len("filter[") : len(key)-1]
			if col != "" {
				filters[col] = val
			}
		}
	}
	return filters
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// mapError translates typed errors from the lower layers into the HTTP error
// taxonomy. The returned error is always non-nil so callers can propagate it;
// the app-level error handler renders it. Anything unrecognized becomes a 500.
func mapError(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var unknownAlias *dbconn.UnknownAliasError
	if errors.As(err, &unknownAlias) {
		return NotFoundError("connection", unknownAlias.Alias)
	}
	var notEmpty *introspect.SchemaNotEmptyError
	if errors.As(err, &notEmpty) {
		return StateConflictError(notEmpty.Error())
	}
	var badName *introspect.InvalidSchemaNameError
	if errors.As(err, &badName) {
		return ValidationError(badName.Error())
	}
	var sysSchema *introspect.SystemSchemaError
	if errors.As(err, &sysSchema) {
		return ValidationError(sysSchema.Error())
	}
	if errors.Is(err, introspect.ErrEmptySchemaName) {
		return ValidationError(err.Error())
	}
	var queryFailed *introspect.QueryFailedError
	if errors.As(err, &queryFailed) {
		return QueryError(queryFailed)
	}

	return fmt.Errorf("table editor: %w", err)
}
