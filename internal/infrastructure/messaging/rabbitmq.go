package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/Cobranca-api/internal/application/ports"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ ports.Notifier = (*RabbitNotifier)(nil)

// Publisher subconjunto de *amqp.Channel usado para publicar; permite inyectar un fake en tests.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitNotifier publica notificaciones en una cola durable.
type RabbitNotifier struct {
	pub   Publisher
	queue string
	conn  *amqp.Connection
	chn   *amqp.Channel
}

// NewRabbitNotifier abre conexión y canal y declara la cola durable.
func NewRabbitNotifier(url, queue string) (*RabbitNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: abrir canal: %w", err)
	}
	if _, err := chn.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		_ = chn.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: declarar cola %s: %w", queue, err)
	}
	return &RabbitNotifier{pub: chn, queue: queue, conn: conn, chn: chn}, nil
}

// NewRabbitNotifierWithPublisher permite inyectar un publisher de prueba.
func NewRabbitNotifierWithPublisher(pub Publisher, queue string) *RabbitNotifier {
	return &RabbitNotifier{pub: pub, queue: queue}
}

// Notify serializa la notificación y la publica como mensaje persistente.
func (r *RabbitNotifier) Notify(ctx context.Context, n ports.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("rabbitmq: serializar notificación: %w", err)
	}
	return r.pub.PublishWithContext(ctx,
		"",      // exchange por defecto
		r.queue, // routing key = cola
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.Kind + ":" + n.Reference,
			Body:         body,
		},
	)
}

// Close cierra canal y conexión si fueron abiertos por NewRabbitNotifier.
func (r *RabbitNotifier) Close() error {
	if r.chn != nil {
		if err := r.chn.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
