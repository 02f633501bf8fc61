package notification

import (
	"context"
	"log/slog"
)

const (
	// KindVerifyEmail is sent after sign-up.
	KindVerifyEmail = "verify_email"
	// KindResendOTP is sent when a user asks for a fresh code.
	KindResendOTP = "resend_otp"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Subject     string
	Body        string
}

// Notifier delivers notifications to downstream systems. Delivery failures
// are returned so that stricter callers can retry or alert.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message Message) error

// Send calls f.
func (f NotifierFunc) Send(ctx context.Context, message Message) error {
	return f(ctx, message)
}

// LoggerNotifier writes notifications to the logger instead of delivering them.
// It is the fallback when no SMTP relay is configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("subject", message.Subject),
	)
	n.logger.Debug("notification body", slog.String("destination", message.Destination), slog.String("body", message.Body))
	return nil
}
