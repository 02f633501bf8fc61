package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/infra"
)

// RegisterHealthRoutes adds a readiness endpoint reporting each configured
// backing store.
func RegisterHealthRoutes(app *fiber.App, d Deps) {
	stores := &infra.Stores{DB: d.DB, Mongo: d.Mongo, Cache: d.Cache}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		checks := fiber.Map{"store": d.Cfg.StoreDriver}
		status := http.StatusOK
		for name, err := range stores.Check(ctx) {
			if err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    checks,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
