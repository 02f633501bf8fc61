package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Audit writes one access log record per request. A failed handler is
// logged with the status ErrorHandler will give it, at warn for client
// errors and error for server errors. The request id comes from the request
// context set by RequestID.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		level := slog.LevelInfo
		attrs := make([]slog.Attr, 0, 7)
		if err != nil {
			status = errorStatus(err)
			level = slog.LevelWarn
			if status >= fiber.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs = append(attrs, slog.Any("error", err))
		}
		attrs = append(attrs,
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("ip", c.IP()),
		)
		if p, ok := PrincipalFrom(c); ok {
			attrs = append(attrs, slog.String("user_id", p.UserID))
		}

		logger.LogAttrs(c.UserContext(), level, "http request", attrs...)
		return err
	}
}
