package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Cobranca-api/internal/bootstrap"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	httpRouter "github.com/jhoicas/Cobranca-api/internal/interfaces/http"
	"github.com/jhoicas/Cobranca-api/pkg/config"
	"github.com/jhoicas/Cobranca-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	// Workers de efectos secundarios: viven hasta que termine el drenaje en el apagado
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher := bootstrap.NewDispatcher(cfg.Worker, log)
	dispatcher.Start(workerCtx)

	c, err := bootstrap.Build(context.Background(), cfg, log, dispatcher)
	if err != nil {
		log.Fatal().Err(err).Msg("inicialización")
	}
	defer c.Close()

	// Job de reconciliación: emisiones con resultado desconocido y webhooks perdidos
	reconcileCtx, stopReconcile := context.WithCancel(context.Background())
	reconcileDone := make(chan struct{})
	go func() {
		defer close(reconcileDone)
		c.Reconcile.Start(reconcileCtx, cfg.Worker.ReconcileInterval)
	}()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Cobrança API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Webhook:        c.Webhook,
		Issuer:         c.Issuer,
		Mutator:        c.Mutator,
		Subscribers:    c.Subscribers,
		Coverage:       c.InvoiceQuery,
		Statements:     c.PDF,
		JWTSecret:      cfg.JWT.Secret,
		WebhookToken:   cfg.Webhook.Token,
		Log:            log.Component("http"),
		RequestContext: gateway.WithCredentialCache,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	stopReconcile()
	<-reconcileDone

	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("efectos pendientes sin drenar")
	}
	stats := dispatcher.Stats()
	log.Info().
		Int64("succeeded", stats.Succeeded).
		Int64("failed", stats.Failed).
		Int64("dropped", stats.Dropped).
		Msg("aplicación detenida")
}
