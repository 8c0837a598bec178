package engine

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(api fiber.Router, h *Handler) {
	conns := api.Group("/connections/:alias")

	conns.Get("/schemas", h.ListSchemas)
	conns.Post("/schemas", h.CreateSchema)
	conns.Delete("/schemas/:schema", h.DropSchema)

	conns.Get("/schemas/:schema/tables", h.ListTables)

	rows := conns.Group("/schemas/:schema/tables/:table/rows")
	rows.Get("/", h.GetRows)
	rows.Put("/", h.SaveRows)
	rows.Post("/", h.CreateRow)
	rows.Post("/delete", h.DeleteRows)
}
