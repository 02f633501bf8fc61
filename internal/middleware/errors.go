package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/apperr"
)

const internalMessage = "Internal server error"

// ErrorHandler renders every failure as a JSON body with a message field.
// Classified errors add their response fields (needsVerification, email,
// registrationExpired) and map their kind to a status code.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			if appErr.Kind == apperr.KindInternal {
				return internalError(c, logger, err)
			}
			body := fiber.Map{}
			for k, v := range appErr.Fields {
				body[k] = v
			}
			body["message"] = appErr.Error()
			return c.Status(appErr.Status()).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"message": fiberErr.Message})
		}
		return internalError(c, logger, err)
	}
}

func internalError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("path", c.Path()),
		slog.Any("error", err),
	)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"message": internalMessage})
}

// errorStatus returns the status ErrorHandler will write for err.
func errorStatus(err error) int {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return http.StatusInternalServerError
}
