package identity

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/apperr"
	"github.com/todo-team/todolist/internal/middleware"
)

// Handler exposes account endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type messageResponse struct {
	Message string `json:"message"`
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// SignUp registers a new account and mails its OTP.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.service.Register(c.UserContext(), req); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(messageResponse{Message: "Register success! Please verify your email using the OTP sent."})
}

// VerifyOTP confirms an email address.
func (h *Handler) VerifyOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.VerifyOTP(c.UserContext(), req.Email, req.OTP); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(messageResponse{Message: "Email verified successfully!"})
}

// ResendOTP issues a fresh code.
func (h *Handler) ResendOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.service.ResendOTP(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(messageResponse{Message: "New OTP has been sent to your email."})
}

// UserInfo returns the document of the authenticated caller.
func (h *Handler) UserInfo(c *fiber.Ctx) error {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return apperr.New(apperr.KindUnauthorized, "Unauthorized")
	}
	user, err := h.service.Get(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(user.Document())
}

// ListUsers returns every account. Admin only.
func (h *Handler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	docs := make([]Document, 0, len(users))
	for _, u := range users {
		docs = append(docs, u.Document())
	}
	return c.Status(http.StatusOK).JSON(docs)
}

// AddUser creates a verified account. Admin only.
func (h *Handler) AddUser(c *fiber.Ctx) error {
	var req NewUserInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.AddUser(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully by admin",
		"user":    user.Summary(),
	})
}

// UpdateUser patches an account. Admin only.
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	var req UpdateInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.UpdateUser(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    user.Document(),
	})
}

// DeleteUser removes an account. Admin only.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(messageResponse{Message: "User deleted successfully"})
}
