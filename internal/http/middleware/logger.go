package middleware

import (
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"docmgmt/internal/logging"
)

// ErrorLocalKey holds the text of an internal error a handler answered with a 500.
const ErrorLocalKey = "error"

// Logger emits one structured record per HTTP request with these fields:
// - request_id (from RequestID)
// - actor (from Actor, when present)
// - method
// - path
// - status
// - latency (milliseconds, as float)
// - error (internal failures only)
//
// Server errors are logged at error level, client errors at warn.
func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			resolveError(c, err)
		}

		status := c.Response().StatusCode()
		attrs := []any{
			"request_id", RequestIDOf(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", float64(time.Since(start).Microseconds()) / 1000,
		}
		if actor := ActorOf(c); actor != "" {
			attrs = append(attrs, "actor", actor)
		}
		if msg, ok := c.Locals(ErrorLocalKey).(string); ok {
			attrs = append(attrs, "error", msg)
		}

		level := slog.LevelInfo
		switch {
		case status >= fiber.StatusInternalServerError:
			level = slog.LevelError
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		}
		logger.Log(c.UserContext(), level, "http_request", attrs...)

		return nil
	}
}

// LoggerWithWriter is Logger writing JSON lines to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.NewWithWriter(w, "", "debug", loc))
}

// resolveError runs the app error handler right away so the response status is final
// before it is recorded. The error is consumed; outer middleware sees a written response.
func resolveError(c *fiber.Ctx, err error) {
	if herr := c.App().ErrorHandler(c, err); herr != nil {
		_ = c.SendStatus(fiber.StatusInternalServerError)
	}
}
