package middleware

import (
	"fundtrack-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler turns every unhandled error into the standard error envelope.
// Non-fiber errors are logged with the trace ID and reported as a plain 500,
// keeping internal messages out of responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		log.Error().Str("trace_id", GetTraceID(c)).Err(err).Msg("Unhandled error")
	}

	return response.Error(c, message, code, nil)
}
