package route

import (
	"ledger-service/src/internal/delivery/http"
	"ledger-service/src/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v2"
)

type RouteConfig struct {
	App                *fiber.App
	WalletController   *http.WalletController
	OfferController    *http.OfferController
	OrderController    *http.OrderController
	WebhookController  *http.WebhookController
	AuthMiddleware     fiber.Handler
	InternalMiddleware fiber.Handler
}

func (c *RouteConfig) Setup() {
	c.App.Use(middleware.NewLogger())
	c.App.Get("/health", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})

	// Provider webhooks authenticate with their own signature, not a bearer.
	c.App.Post("/webhooks/v1/:provider", c.WebhookController.Notify)

	c.SetupAuthRoute()
}

func (c *RouteConfig) SetupAuthRoute() {
	c.App.Use(c.AuthMiddleware)

	c.App.Get("/wallets/v1/balance", c.WalletController.GetBalance)
	c.App.Get("/wallets/v1/transactions", c.WalletController.ListTransactions)

	c.App.Post("/offers/v1", c.OfferController.Create)
	c.App.Get("/offers/v1", c.OfferController.ListActive)
	c.App.Get("/offers/v1/:side/:id", c.OfferController.Get)
	c.App.Delete("/offers/v1/:side/:id", c.OfferController.Deactivate)

	c.App.Post("/orders/v1", c.OrderController.Create)
	c.App.Get("/orders/v1/:side/:id", c.OrderController.Get)
	c.App.Post("/orders/v1/:side/:id/paid", c.OrderController.MarkPaid)
	c.App.Post("/orders/v1/:side/:id/confirm", c.OrderController.Confirm)
	c.App.Post("/orders/v1/:side/:id/cancel", c.OrderController.Cancel)

	// Operator surface: these take the target wallet from the body, so a
	// bearer token alone is not enough.
	internal := c.App.Group("/internal/v1", c.InternalMiddleware)
	internal.Post("/retry-sweep", c.WebhookController.Sweep)
	internal.Post("/ledger/lock", c.WalletController.Lock)
	internal.Post("/ledger/release", c.WalletController.Release)
	internal.Post("/ledger/refund", c.WalletController.Refund)
	internal.Post("/ledger/credit", c.WalletController.Credit)
	internal.Post("/ledger/debit", c.WalletController.Debit)
}
