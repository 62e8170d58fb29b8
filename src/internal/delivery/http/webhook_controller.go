package http

import (
	"ledger-service/src/internal/usecase"
	"ledger-service/src/pkg/log"
	"ledger-service/src/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

// SignatureHeader carries the provider signature over the raw request body.
const SignatureHeader = "X-Signature"

type WebhookController struct {
	Log     log.Log
	UseCase *usecase.SettlementUseCase
}

func NewWebhookController(useCase *usecase.SettlementUseCase, logger log.Log) *WebhookController {
	return &WebhookController{
		Log:     logger,
		UseCase: useCase,
	}
}

// Notify receives one provider settlement notification. The body is passed
// through raw: the signature is computed over the exact bytes on the wire.
func (c *WebhookController) Notify(ctx *fiber.Ctx) error {
	provider := ctx.Params("provider")
	signature := ctx.Get(SignatureHeader)

	// Copy the body: fiber reuses the buffer after the handler returns, and
	// the payload snapshot may outlive the request inside a retry task.
	payload := make([]byte, len(ctx.Body()))
	copy(payload, ctx.Body())

	result := c.UseCase.Process(ctx.Context(), provider, payload, signature)
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Settlement Notification", fiber.StatusOK, ctx)
}

// Sweep replays all due webhook retry tasks. Operational entry point, safe to
// invoke concurrently.
func (c *WebhookController) Sweep(ctx *fiber.Ctx) error {
	result := c.UseCase.Sweep(ctx.Context())
	if result.Error != nil {
		return utils.ResponseError(result.Error, ctx)
	}

	return utils.Response(result.Data, "Retry Sweep", fiber.StatusOK, ctx)
}
