package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LoggingMiddleware struct {
	logger *zap.Logger
}

func NewLoggingMiddleware(logger *zap.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{
		logger: logger,
	}
}

func (lm *LoggingMiddleware) LogRequest() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		if c.Path() == "/metrics" {
			return err
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.IP()),
		}
		if draftID, ok := c.Locals(DraftIDKey).(string); ok {
			fields = append(fields, zap.String("draft_id", draftID))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}

		lm.logger.Info("HTTP Request", fields...)
		return err
	}
}
