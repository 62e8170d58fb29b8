package middleware

import (
	"time"

	"ledger-service/src/pkg/log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// NewLogger tags every request with an id and logs method, path, status and
// latency after the handler returns.
func NewLogger() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		requestID := ctx.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Set(fiber.HeaderXRequestID, requestID)

		start := time.Now()
		err := ctx.Next()

		logger := log.GetLogger()
		logger.Info(
			"middleware/logger",
			ctx.Method()+" "+ctx.Path(),
			requestID,
			time.Since(start).String(),
		)
		return err
	}
}
