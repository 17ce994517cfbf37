package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConsumerUnit punto de conexión medido. SubscriberID puede quedar vacío (unidad desvinculada).
type ConsumerUnit struct {
	ID                    string
	SubscriberID          string
	HolderName            string
	Provider              string // distribuidora
	AverageConsumptionKWh decimal.Decimal
	DueDay                int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
