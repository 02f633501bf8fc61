package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/todo"
)

// RegisterTodoRoutes wires todo CRUD. r must already require authentication.
func RegisterTodoRoutes(r fiber.Router, h *todo.Handler) {
	r.Get("/get_all", h.List)
	r.Post("/add_todo", h.Create)
	r.Patch("/update_todo/:id", h.Update)
	r.Delete("/delete_todo/:id", h.Delete)
}
