package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/todo-team/todolist/internal/config"
	"github.com/todo-team/todolist/internal/infra"
	"github.com/todo-team/todolist/internal/middleware"
	"github.com/todo-team/todolist/internal/notification"
	"github.com/todo-team/todolist/internal/routes"
)

const mailQueueSize = 256

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app    *fiber.App
	cfg    config.Config
	mailer *notification.AsyncNotifier
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// OTP mail goes through SMTP when a relay is configured and to the log
// otherwise, always off the request path.
func New(cfg config.Config, stores *infra.Stores, logger *slog.Logger) (*Server, error) {
	var transport notification.Notifier = notification.NewLoggerNotifier(logger)
	if cfg.Mail.Host != "" {
		smtpMailer, err := notification.NewSMTPMailer(cfg.Mail)
		if err != nil {
			return nil, err
		}
		transport = smtpMailer
	}
	mailer := notification.NewAsyncNotifier(transport, logger, mailQueueSize)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	if stores == nil {
		stores = &infra.Stores{}
	}
	err := routes.Setup(app, routes.Deps{
		Cfg:      cfg,
		DB:       stores.DB,
		Mongo:    stores.Mongo,
		Cache:    stores.Cache,
		Logger:   logger,
		Notifier: mailer,
	})
	if err != nil {
		mailer.Close()
		return nil, err
	}

	return &Server{app: app, cfg: cfg, mailer: mailer}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server, then drains queued mail.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.mailer.Close()
	return err
}
