package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/identity"
	"github.com/todo-team/todolist/internal/middleware"
)

// RegisterIdentityRoutes wires the profile endpoint and the admin user panel.
func RegisterIdentityRoutes(r fiber.Router, h *identity.Handler, jwtmw, idempotency fiber.Handler) {
	r.Get("/user-infor", jwtmw, h.UserInfo)

	admin := middleware.RequireRole(string(identity.RoleAdmin), adminOnlyMessage)
	r.Get("/all-users", jwtmw, admin, h.ListUsers)
	r.Post("/add-user", jwtmw, admin, idempotency, h.AddUser)
	r.Patch("/update-user/:id", jwtmw, admin, h.UpdateUser)
	r.Delete("/delete-user/:id", jwtmw, admin, h.DeleteUser)
}
