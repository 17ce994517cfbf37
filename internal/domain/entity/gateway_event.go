package entity

import "time"

// GatewayEvent registro de webhooks recibidos (deduplicación por id de evento).
type GatewayEvent struct {
	EventID    string
	Event      string
	PaymentID  string
	ReceivedAt time.Time
}
