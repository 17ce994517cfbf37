package messaging

import (
	"context"

	"github.com/jhoicas/Cobranca-api/internal/application/ports"
	"github.com/rs/zerolog"
)

var (
	_ ports.Notifier       = (*LogNotifier)(nil)
	_ ports.EventPublisher = NopPublisher{}
)

// LogNotifier registra la notificación en el log; se usa sin RABBITMQ_URL.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier construye el notifier de solo log.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify escribe la notificación en el log.
func (n *LogNotifier) Notify(_ context.Context, msg ports.Notification) error {
	n.log.Info().Str("recipient", msg.Recipient).Str("kind", msg.Kind).
		Str("reference", msg.Reference).Str("text", msg.Text).Msg("notificación (sin cola configurada)")
	return nil
}

// NopPublisher descarta eventos; se usa sin KAFKA_BROKERS.
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, ports.BillingEvent) error { return nil }
