package todo

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/apperr"
	"github.com/todo-team/todolist/internal/middleware"
)

// Handler exposes todo HTTP endpoints for the authenticated caller.
type Handler struct {
	service *Service
}

// NewHandler builds a todo HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type todoResponse struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"todo_name"`
	Description string    `json:"todo_desc"`
	Image       string    `json:"todo_image"`
	Done        bool      `json:"todo_status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toResponse(t Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Name:        t.Name,
		Description: t.Description,
		Image:       t.Image,
		Done:        t.Done,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func owner(c *fiber.Ctx) (string, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return "", apperr.New(apperr.KindUnauthorized, "Invalid Authentication.")
	}
	return p.UserID, nil
}

// List returns the caller's todos.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := owner(c)
	if err != nil {
		return err
	}
	todos, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	out := make([]todoResponse, 0, len(todos))
	for _, t := range todos {
		out = append(out, toResponse(t))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Create adds a todo.
func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := owner(c)
	if err != nil {
		return err
	}
	var req CreateInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	todo, err := h.service.Create(c.UserContext(), userID, req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(todo))
}

// Update patches a todo.
func (h *Handler) Update(c *fiber.Ctx) error {
	userID, err := owner(c)
	if err != nil {
		return err
	}
	var req UpdateInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	todo, err := h.service.Update(c.UserContext(), userID, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(todo))
}

// Delete removes a todo.
func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, err := owner(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Todo deleted successfully", "id": id})
}
