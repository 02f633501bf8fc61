package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/identity"
)

// RefreshCookie names the httpOnly cookie that carries the refresh token.
const RefreshCookie = "refreshtoken"

// Handler exposes sign-in and token refresh.
type Handler struct {
	svc        *Service
	cookiePath string
	secure     bool
}

// NewHandler builds the auth handler. The refresh cookie is scoped to
// cookiePath and marked Secure when secure is set.
func NewHandler(svc *Service, cookiePath string, secure bool) *Handler {
	return &Handler{svc: svc, cookiePath: cookiePath, secure: secure}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    identity.Summary `json:"user"`
}

// SignIn validates credentials, sets the refresh cookie and returns the
// access token.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	session, err := h.svc.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookie,
		Value:    session.Tokens.RefreshToken,
		Path:     h.cookiePath,
		MaxAge:   int(h.svc.cfg.RefreshTokenTTL.Seconds()),
		HTTPOnly: true,
		Secure:   h.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(http.StatusOK).JSON(signInResponse{
		Message: "Sign In successfully!",
		Token:   session.Tokens.AccessToken,
		User:    session.User.Summary(),
	})
}

// RefreshToken issues a new access token from the refresh cookie.
func (h *Handler) RefreshToken(c *fiber.Ctx) error {
	token, err := h.svc.Refresh(c.UserContext(), c.Cookies(RefreshCookie))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": token})
}
