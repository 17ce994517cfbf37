package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Cobranca-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Webhook      EventHandler
	Issuer       ChargeIssuer
	Mutator      ChargeMutator
	Subscribers  SubscriberSaver
	Coverage     CoverageReader
	Statements   StatementDownloader
	JWTSecret    string
	WebhookToken string
	Log          zerolog.Logger

	// RequestContext decora el contexto de cada request (ej: caché de credenciales del gateway).
	RequestContext func(context.Context) context.Context
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.RequestContext != nil {
		app.Use(func(c *fiber.Ctx) error {
			c.SetUserContext(deps.RequestContext(c.UserContext()))
			return c.Next()
		})
	}

	// Webhook del gateway (público; opcionalmente protegido por token compartido)
	webhookHandler := NewWebhookHandler(deps.Webhook, deps.WebhookToken, deps.Log)
	app.Post("/webhooks/payment-events", webhookHandler.PaymentEvents)

	// Rutas protegidas (requieren Bearer Token de operador)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	read := RequireScope(jwt.ScopeBillingRead, jwt.ScopeBillingWrite)
	write := RequireScope(jwt.ScopeBillingWrite)

	// Charges
	charges := api.Group("/charges")
	chargeHandler := NewChargeHandler(deps.Issuer, deps.Mutator)
	charges.Post("/", write, chargeHandler.Issue)
	charges.Put("/:kind/:id", write, chargeHandler.Update)
	charges.Delete("/:kind/:id", write, chargeHandler.Cancel)

	// Subscribers
	subscriberHandler := NewSubscriberHandler(deps.Subscribers)
	api.Put("/subscribers/:id", write, subscriberHandler.Save)

	// Invoices y consolidados
	invoiceHandler := NewInvoiceHandler(deps.Coverage, deps.Statements)
	api.Get("/invoices/:id/coverage", read, invoiceHandler.Coverage)
	api.Get("/consolidated-invoices/:id/pdf", read, invoiceHandler.DownloadConsolidatedPDF)
}
