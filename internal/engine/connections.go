package engine

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"gridbase/internal/dbconn"
	"gridbase/internal/introspect"
	"gridbase/internal/store"
)

// ConnectionHandler manages the stored connection configs and their live
// pools. Every operation is scoped to the authenticated owner.
type ConnectionHandler struct {
	store    *store.Store
	registry *dbconn.Registry
}

func NewConnectionHandler(st *store.Store, reg *dbconn.Registry) *ConnectionHandler {
	return &ConnectionHandler{store: st, registry: reg}
}

type connectionRequest struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// List handles GET /api/connections. Passwords never render; the struct's
// json tags keep them out of the envelope.
func (h *ConnectionHandler) List(c *fiber.Ctx) error {
	configs, err := h.store.ListConnectionConfigs(c.Context(), userID(c))
	if err != nil {
		return mapConnError(c, err)
	}
	return c.JSON(fiber.Map{"data": configs})
}

// Create handles POST /api/connections. The target must be reachable, and the
// declared schema must exist, before anything is persisted.
func (h *ConnectionHandler) Create(c *fiber.Ctx) error {
	cfg, appErr := parseConnectionBody(c, true)
	if appErr != nil {
		return appErr
	}
	cfg.OwnerID = userID(c)

	if err := dbconn.TestConnection(c.Context(), cfg); err != nil {
		return mapTestError(c, err)
	}
	if err := h.store.CreateConnectionConfig(c.Context(), cfg); err != nil {
		return mapConnError(c, err)
	}
	if err := h.registry.Ensure(c.Context(), cfg.Alias, cfg.OwnerID); err != nil {
		return mapTestError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"data": cfg})
}

// Update handles PUT /api/connections/:alias. A blank password keeps the
// stored secret; the live pool is rebuilt so stale credentials cannot survive.
func (h *ConnectionHandler) Update(c *fiber.Ctx) error {
	alias := c.Params("alias")
	owner := userID(c)

	existing, err := h.store.GetConnectionConfig(c.Context(), owner, alias)
	if err != nil {
		return mapConnError(c, err)
	}

	cfg, appErr := parseConnectionBody(c, false)
	if appErr != nil {
		return appErr
	}
	cfg.OwnerID = owner
	cfg.Alias = alias
	if cfg.Password == "" {
		// Test with the stored secret; the blank stays blank on the update
		// statement so the stored secret survives.
		test := *cfg
		test.Password = existing.Password
		if err := dbconn.TestConnection(c.Context(), &test); err != nil {
			return mapTestError(c, err)
		}
	} else {
		if err := dbconn.TestConnection(c.Context(), cfg); err != nil {
			return mapTestError(c, err)
		}
	}

	if err := h.store.UpdateConnectionConfig(c.Context(), cfg); err != nil {
		return mapConnError(c, err)
	}
	if err := h.registry.Ensure(c.Context(), alias, owner); err != nil {
		return mapTestError(c, err)
	}

	updated, err := h.store.GetConnectionConfig(c.Context(), owner, alias)
	if err != nil {
		return mapConnError(c, err)
	}
	return c.JSON(fiber.Map{"data": updated})
}

// Delete handles DELETE /api/connections/:alias: drops the stored config and
// evicts the live pool.
func (h *ConnectionHandler) Delete(c *fiber.Ctx) error {
	alias := c.Params("alias")

	if err := h.store.DeleteConnectionConfig(c.Context(), userID(c), alias); err != nil {
		return mapConnError(c, err)
	}
	if err := h.registry.Remove(alias); err != nil {
		return mapConnError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"alias": alias, "deleted": true}})
}

// Load handles POST /api/connections/load: ensures a live pool for every
// stored connection the caller owns, collecting per-alias outcomes instead of
// failing on the first bad target.
func (h *ConnectionHandler) Load(c *fiber.Ctx) error {
	results, err := h.registry.LoadAll(c.Context(), userID(c))
	if err != nil {
		return mapConnError(c, err)
	}

	out := make([]fiber.Map, 0, len(results))
	for _, r := range results {
		entry := fiber.Map{"alias": r.Alias, "ok": r.Err == nil}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		}
		out = append(out, entry)
	}
	return c.JSON(fiber.Map{"data": out})
}

// Test handles POST /api/connections/test: a dry run that never persists and
// never touches the live registry.
func (h *ConnectionHandler) Test(c *fiber.Ctx) error {
	cfg, appErr := parseConnectionBody(c, true)
	if appErr != nil {
		return appErr
	}
	if err := dbconn.TestConnection(c.Context(), cfg); err != nil {
		return mapTestError(c, err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ok": true}})
}

func parseConnectionBody(c *fiber.Ctx, requirePassword bool) (*store.ConnectionConfig, *AppError) {
	var body connectionRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, InvalidPayloadError("Invalid JSON body")
	}
	if body.Name == "" || body.Host == "" || body.Database == "" || body.Username == "" {
		return nil, ValidationError("name, host, database, and username are required")
	}
	if requirePassword && body.Password == "" {
		return nil, ValidationError("password is required")
	}
	if body.Port == 0 {
		body.Port = 5432
	}
	if body.Schema != "" {
		if err := introspect.ValidateSchemaName(body.Schema); err != nil {
			return nil, ValidationError(err.Error())
		}
	}
	return &store.ConnectionConfig{
		Name:     body.Name,
		Host:     body.Host,
		Port:     body.Port,
		Database: body.Database,
		Schema:   body.Schema,
		Username: body.Username,
		Password: body.Password,
	}, nil
}

func mapConnError(c *fiber.Ctx, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, store.ErrNotFound) {
		return NotFoundError("connection", c.Params("alias"))
	}
	if errors.Is(err, store.ErrUniqueViolation) {
		return StateConflictError("A connection with this name or target already exists")
	}
	if errors.Is(err, dbconn.ErrReservedAlias) {
		return StateConflictError(err.Error())
	}
	return err
}

// mapTestError classifies a failed connection test or pool ensure. A missing
// schema is the caller's mistake; everything else is the target refusing us.
func mapTestError(c *fiber.Ctx, err error) error {
	var schemaMissing *dbconn.SchemaNotFoundError
	if errors.As(err, &schemaMissing) {
		return ValidationError(schemaMissing.Error())
	}
	if errors.Is(err, store.ErrNotFound) {
		return NotFoundError("connection", c.Params("alias"))
	}
	return ConnectivityError(err)
}

func RegisterConnectionRoutes(api fiber.Router, h *ConnectionHandler) {
	api.Get("/connections", h.List)
	api.Post("/connections", h.Create)
	api.Post("/connections/test", h.Test)
	api.Post("/connections/load", h.Load)
	api.Put("/connections/:alias", h.Update)
	api.Delete("/connections/:alias", h.Delete)
}
