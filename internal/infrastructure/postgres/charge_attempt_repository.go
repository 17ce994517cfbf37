package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
)

var (
	_ repository.ChargeAttemptRepository = (*ChargeAttemptRepo)(nil)
	_ repository.GatewayEventRepository  = (*GatewayEventRepo)(nil)
)

// ChargeAttemptRepo intentos de emisión con resultado desconocido.
type ChargeAttemptRepo struct {
	q Querier
}

// NewChargeAttemptRepository construye el adaptador.
func NewChargeAttemptRepository(q Querier) *ChargeAttemptRepo {
	return &ChargeAttemptRepo{q: q}
}

// Create registra el intento.
func (r *ChargeAttemptRepo) Create(ctx context.Context, a *entity.ChargeAttempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.State == "" {
		a.State = entity.AttemptStateUnknown
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO charge_attempts (id, kind, subscriber_id, consolidated_id, invoice_ids, value, due_date,
		                             external_reference, state, created_at)
		VALUES ($1, $2, $3, $4, $5::uuid[], $6, $7, $8, $9, $10)`,
		a.ID, a.Kind, a.SubscriberID, nullIfEmpty(a.ConsolidatedID), a.InvoiceIDs, a.Value, a.DueDate,
		a.ExternalReference, a.State, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert charge attempt: %w", err)
	}
	return nil
}

// ListUnknown intentos pendientes de resolución, los más antiguos primero.
func (r *ChargeAttemptRepo) ListUnknown(ctx context.Context, limit int) ([]*entity.ChargeAttempt, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, kind, subscriber_id, COALESCE(consolidated_id::text, ''), invoice_ids::text[], value, due_date,
		       external_reference, state, created_at, resolved_at
		FROM charge_attempts WHERE state = 'unknown' ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unknown charge attempts: %w", err)
	}
	defer rows.Close()
	var list []*entity.ChargeAttempt
	for rows.Next() {
		var a entity.ChargeAttempt
		if err := rows.Scan(&a.ID, &a.Kind, &a.SubscriberID, &a.ConsolidatedID, &a.InvoiceIDs, &a.Value, &a.DueDate,
			&a.ExternalReference, &a.State, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan charge attempt: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

// Resolve cierra el intento como adopted o failed.
func (r *ChargeAttemptRepo) Resolve(ctx context.Context, id, state string, at time.Time) error {
	_, err := r.q.Exec(ctx,
		`UPDATE charge_attempts SET state = $2, resolved_at = $3 WHERE id = $1 AND state = 'unknown'`, id, state, at)
	if err != nil {
		return fmt.Errorf("resolve charge attempt: %w", err)
	}
	return nil
}

// HasUnknownForInvoices true si alguna factura participa de un intento sin resolver.
func (r *ChargeAttemptRepo) HasUnknownForInvoices(ctx context.Context, invoiceIDs []string) (bool, error) {
	if len(invoiceIDs) == 0 {
		return false, nil
	}
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM charge_attempts WHERE state = 'unknown' AND invoice_ids && $1::uuid[])`,
		invoiceIDs).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check unknown charge attempts: %w", err)
	}
	return exists, nil
}

// GatewayEventRepo log de deduplicación de webhooks.
type GatewayEventRepo struct {
	q Querier
}

// NewGatewayEventRepository construye el adaptador.
func NewGatewayEventRepository(q Querier) *GatewayEventRepo {
	return &GatewayEventRepo{q: q}
}

// Exists true si el evento ya fue procesado.
func (r *GatewayEventRepo) Exists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM gateway_events WHERE event_id = $1)`, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check gateway event: %w", err)
	}
	return exists, nil
}

// Record inserta el evento; false si ya había sido recibido.
func (r *GatewayEventRepo) Record(ctx context.Context, e *entity.GatewayEvent) (bool, error) {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	tag, err := r.q.Exec(ctx, `
		INSERT INTO gateway_events (event_id, event, payment_id, received_at)
		VALUES ($1, $2, $3, $4) ON CONFLICT (event_id) DO NOTHING`,
		e.EventID, e.Event, e.PaymentID, e.ReceivedAt)
	if err != nil {
		return false, fmt.Errorf("record gateway event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
