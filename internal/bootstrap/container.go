// Package bootstrap arma el grafo de dependencias compartido por la API y el CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cobranca-api/internal/application/billing"
	"github.com/jhoicas/Cobranca-api/internal/application/commission"
	"github.com/jhoicas/Cobranca-api/internal/application/ports"
	"github.com/jhoicas/Cobranca-api/internal/application/sideeffect"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/lock"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/messaging"
	infrapdf "github.com/jhoicas/Cobranca-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Cobranca-api/pkg/config"
	"github.com/jhoicas/Cobranca-api/pkg/logger"
)

// Container casos de uso listos para usar más los recursos que hay que cerrar.
type Container struct {
	Pool    *pgxpool.Pool
	Gateway *gateway.Client

	Customers    *billing.CustomerSyncUseCase
	Issuer       *billing.ChargeIssuerUseCase
	Mutator      *billing.ChargeMutatorUseCase
	Webhook      *billing.WebhookReconcilerUseCase
	Reconcile    *billing.ReconcileUseCase
	Subscribers  *billing.SubscriberUseCase
	InvoiceQuery *billing.InvoiceQueryUseCase
	PDF          *billing.PDFUseCase
	Commission   *commission.LedgerPoster

	closers []func()
}

// Build conecta PostgreSQL, aplica migraciones y construye los casos de uso.
// queue recibe los efectos secundarios (Dispatcher en la API, Inline en el CLI).
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, queue sideeffect.Enqueuer) (*Container, error) {
	defaultTariff, err := decimal.NewFromString(cfg.Commission.DefaultTariff)
	if err != nil {
		return nil, fmt.Errorf("COMMISSION_DEFAULT_TARIFF inválido: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	c := &Container{Pool: pool}
	c.closers = append(c.closers, pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		c.Close()
		return nil, fmt.Errorf("migraciones: %w", err)
	}

	subscriberRepo := postgres.NewSubscriberRepository(pool)
	unitRepo := postgres.NewConsumerUnitRepository(pool)
	originatorRepo := postgres.NewOriginatorRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	consolidatedRepo := postgres.NewConsolidatedInvoiceRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	attemptRepo := postgres.NewChargeAttemptRepository(pool)
	eventRepo := postgres.NewGatewayEventRepository(pool)
	integrationRepo := postgres.NewIntegrationConfigRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Gateway: credenciales releídas de integration_configs en cada request
	creds := gateway.NewCredentialResolver(integrationRepo, cfg.Gateway.ServiceName)
	gw := gateway.NewClient(creds, cfg.Gateway.Timeout, log.Component("gateway"))
	c.Gateway = gw

	locker, err := c.locker(ctx, cfg.Redis, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	notifier, err := c.notifier(cfg.RabbitMQ, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	events := c.publisher(cfg.Kafka, log)

	c.Commission = commission.NewLedgerPoster(
		subscriberRepo, unitRepo, originatorRepo, invoiceRepo, ledgerRepo,
		gw, defaultTariff, log.Component("commission"),
	)
	effects := billing.NewEffects(
		queue, subscriberRepo, ledgerRepo, c.Commission, notifier, events, log.Component("effects"),
	)
	applier := billing.NewStatusApplier(txRunner, effects, cfg.Webhook.StrictOrdering, log.Component("status"))

	c.Customers = billing.NewCustomerSyncUseCase(subscriberRepo, gw, log.Component("customer_sync"))
	c.Issuer = billing.NewChargeIssuerUseCase(
		invoiceRepo, subscriberRepo, attemptRepo, txRunner,
		c.Customers, gw, locker, effects, log.Component("charge_issuer"),
	)
	c.Mutator = billing.NewChargeMutatorUseCase(
		invoiceRepo, consolidatedRepo, txRunner, gw, effects, log.Component("charge_mutator"),
	)
	c.Webhook = billing.NewWebhookReconcilerUseCase(
		invoiceRepo, consolidatedRepo, eventRepo, applier, gw, log.Component("webhook"),
	)
	c.Reconcile = billing.NewReconcileUseCase(
		invoiceRepo, consolidatedRepo, attemptRepo, txRunner, gw, applier, effects,
		billing.ReconcileConfig{
			StaleAfter:  cfg.Worker.ReconcileStaleAfter,
			Concurrency: cfg.Worker.ReconcileConcurrency,
		},
		log.Component("reconcile"),
	)
	c.Subscribers = billing.NewSubscriberUseCase(subscriberRepo, c.Customers, effects, log.Component("subscribers"))
	c.InvoiceQuery = billing.NewInvoiceQueryUseCase(invoiceRepo)
	c.PDF = billing.NewPDFUseCase(consolidatedRepo, invoiceRepo, subscriberRepo, infrapdf.NewMarotoPDFGenerator())
	return c, nil
}

// Close libera conexiones en orden inverso al de apertura.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// locker Redis si hay REDIS_ADDR; si no, lease en memoria (válido con una sola réplica).
func (c *Container) locker(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (lock.Locker, error) {
	if cfg.Addr == "" {
		log.Warn().Msg("REDIS_ADDR vacío: lease de emisión en memoria")
		return lock.NewMemoryLocker(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Addr, err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return lock.NewRedisLocker(rdb, log.Component("lock")), nil
}

func (c *Container) notifier(cfg config.RabbitMQConfig, log *logger.Logger) (ports.Notifier, error) {
	if cfg.URL == "" {
		return messaging.NewLogNotifier(log.Component("notifications")), nil
	}
	n, err := messaging.NewRabbitNotifier(cfg.URL, cfg.NotificationQueue)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, func() { _ = n.Close() })
	return n, nil
}

func (c *Container) publisher(cfg config.KafkaConfig, log *logger.Logger) ports.EventPublisher {
	if len(cfg.Brokers) == 0 {
		log.Info().Msg("KAFKA_BROKERS vacío: eventos de facturación deshabilitados")
		return messaging.NopPublisher{}
	}
	p := messaging.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
	c.closers = append(c.closers, func() { _ = p.Close() })
	return p
}

// NewDispatcher construye la cola asíncrona de efectos con la configuración de workers.
func NewDispatcher(cfg config.WorkerConfig, log *logger.Logger) *sideeffect.Dispatcher {
	return sideeffect.New(sideeffect.Config{
		Workers:     cfg.SideEffectWorkers,
		QueueSize:   cfg.SideEffectQueueSize,
		MaxAttempts: cfg.SideEffectMaxAttempts,
	}, log.Component("sideeffect"))
}
