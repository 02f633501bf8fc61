package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/auth"
	"github.com/todo-team/todolist/internal/identity"
)

// AuthLimiters throttle the public endpoints that accept a secret guess.
type AuthLimiters struct {
	SignIn    fiber.Handler
	VerifyOTP fiber.Handler
	ResendOTP fiber.Handler
}

// RegisterAuthRoutes wires the public sign-up, OTP and sign-in endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, ids *identity.Handler, limit AuthLimiters) {
	r.Post("/signup", ids.SignUp)
	r.Post("/verify-otp", limit.VerifyOTP, ids.VerifyOTP)
	r.Post("/resend-otp", limit.ResendOTP, ids.ResendOTP)
	r.Post("/signin", limit.SignIn, h.SignIn)
	r.Post("/refresh_token", h.RefreshToken)
}
