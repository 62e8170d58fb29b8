package utils

import (
	httpError "ledger-service/src/pkg/http-error"

	"github.com/gofiber/fiber/v2"
)

type responseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Code    int         `json:"code"`
}

// Response writes a success envelope.
func Response(data interface{}, message string, code int, ctx *fiber.Ctx) error {
	return ctx.Status(code).JSON(responseBody{
		Success: true,
		Message: message,
		Data:    data,
		Code:    code,
	})
}

// ResponseError writes an error envelope, mapping CommonError codes and
// defaulting everything else to 500.
func ResponseError(err error, ctx *fiber.Ctx) error {
	if commonErr, ok := err.(*httpError.CommonError); ok {
		return ctx.Status(commonErr.Code).JSON(responseBody{
			Success: false,
			Message: commonErr.Message,
			Code:    commonErr.Code,
		})
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(responseBody{
		Success: false,
		Message: err.Error(),
		Code:    fiber.StatusInternalServerError,
	})
}
