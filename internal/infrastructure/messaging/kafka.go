package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/Cobranca-api/internal/application/ports"
	skafka "github.com/segmentio/kafka-go"
)

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// Writer subconjunto de kafka.Writer; hace testeable al publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos de facturación con ReferenceID como clave.
type KafkaPublisher struct {
	writer Writer
}

// NewKafkaPublisher crea el writer real sobre los brokers y el tópico dados.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireAll,
	}
	return &KafkaPublisher{writer: w}
}

// NewKafkaPublisherWithWriter permite inyectar un writer de prueba.
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish serializa el evento a JSON y lo escribe particionado por referencia.
func (p *KafkaPublisher) Publish(ctx context.Context, e ports.BillingEvent) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: serializar evento: %w", err)
	}
	msg := skafka.Message{
		Key:   []byte(e.ReferenceID),
		Value: b,
		Headers: []skafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: escribir evento %s: %w", e.Type, err)
	}
	return nil
}

// Close cierra el writer subyacente.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
