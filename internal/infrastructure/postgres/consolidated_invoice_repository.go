package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ConsolidatedInvoiceRepository = (*ConsolidatedInvoiceRepo)(nil)

// ConsolidatedInvoiceRepo implementación de ConsolidatedInvoiceRepository.
// Create debe ejecutarse dentro de una tx (cabecera + ítems).
type ConsolidatedInvoiceRepo struct {
	q Querier
}

// NewConsolidatedInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewConsolidatedInvoiceRepository(q Querier) *ConsolidatedInvoiceRepo {
	return &ConsolidatedInvoiceRepo{q: q}
}

const consolidatedColumns = `
	c.id, c.subscriber_id, c.total_value, c.due_date, c.status, c.gateway_payment_id,
	c.gateway_status, c.boleto_url, c.status_version, c.last_synced_at, c.created_at, c.updated_at,
	COALESCE((SELECT array_agg(ci.invoice_id::text ORDER BY ci.invoice_id)
	            FROM consolidated_invoice_items ci
	           WHERE ci.consolidated_id = c.id AND ci.active), '{}')`

func scanConsolidated(row pgx.Row) (*entity.ConsolidatedInvoice, error) {
	var c entity.ConsolidatedInvoice
	var gatewayID, gatewayStatus, boletoURL *string
	err := row.Scan(
		&c.ID, &c.SubscriberID, &c.TotalValue, &c.DueDate, &c.Status, &gatewayID,
		&gatewayStatus, &boletoURL, &c.StatusVersion, &c.LastSyncedAt, &c.CreatedAt, &c.UpdatedAt, &c.InvoiceIDs,
	)
	if err != nil {
		return nil, err
	}
	c.GatewayPaymentID = derefStr(gatewayID)
	c.GatewayStatus = derefStr(gatewayStatus)
	c.BoletoURL = derefStr(boletoURL)
	return &c, nil
}

// Create inserta la cabecera y un ítem activo por factura.
func (r *ConsolidatedInvoiceRepo) Create(ctx context.Context, c *entity.ConsolidatedInvoice) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	_, err := r.q.Exec(ctx, `
		INSERT INTO consolidated_invoices (id, subscriber_id, total_value, due_date, status, gateway_payment_id,
		                                   gateway_status, boleto_url, status_version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10)`,
		c.ID, c.SubscriberID, c.TotalValue, c.DueDate, c.Status, nullIfEmpty(c.GatewayPaymentID),
		nullIfEmpty(c.GatewayStatus), nullIfEmpty(c.BoletoURL), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("consolidated charge already linked: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert consolidated invoice: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO consolidated_invoice_items (consolidated_id, invoice_id, active)
		SELECT $1, unnest($2::uuid[]), true`, c.ID, c.InvoiceIDs)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice already in an active consolidated charge: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert consolidated items: %w", err)
	}
	return nil
}

// GetByID obtiene un consolidado con sus miembros activos.
func (r *ConsolidatedInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.ConsolidatedInvoice, error) {
	c, err := scanConsolidated(r.q.QueryRow(ctx, `SELECT `+consolidatedColumns+` FROM consolidated_invoices c WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get consolidated invoice: %w", err)
	}
	return c, nil
}

// GetByGatewayPaymentID busca el consolidado vinculado a un cobro.
func (r *ConsolidatedInvoiceRepo) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*entity.ConsolidatedInvoice, error) {
	c, err := scanConsolidated(r.q.QueryRow(ctx,
		`SELECT `+consolidatedColumns+` FROM consolidated_invoices c WHERE c.gateway_payment_id = $1`, gatewayPaymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get consolidated by gateway id: %w", err)
	}
	return c, nil
}

// UpdateChargeTerms refleja total y/o vencimiento aceptados por el gateway.
func (r *ConsolidatedInvoiceRepo) UpdateChargeTerms(ctx context.Context, id string, total *decimal.Decimal, dueDate *time.Time) error {
	_, err := r.q.Exec(ctx, `
		UPDATE consolidated_invoices
		SET total_value = COALESCE($2, total_value),
		    due_date    = COALESCE($3, due_date),
		    updated_at  = now()
		WHERE id = $1`, id, total, dueDate)
	if err != nil {
		return fmt.Errorf("update consolidated charge terms: %w", err)
	}
	return nil
}

// UpdateStatus compare-and-swap sobre status_version.
func (r *ConsolidatedInvoiceRepo) UpdateStatus(ctx context.Context, c repository.StatusChange) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE consolidated_invoices
		SET status = $3, gateway_status = COALESCE($4, gateway_status),
		    status_version = status_version + 1, updated_at = $5
		WHERE id = $1 AND status_version = $2`,
		c.ID, c.ExpectedVersion, c.Status, nullIfEmpty(c.GatewayStatus), c.ChangedAt)
	if err != nil {
		return false, fmt.Errorf("update consolidated status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Deactivate cancela el consolidado y desactiva sus ítems: los miembros vuelven a Uncharged.
func (r *ConsolidatedInvoiceRepo) Deactivate(ctx context.Context, id string, gatewayStatus string, at time.Time) error {
	if _, err := r.q.Exec(ctx, `
		UPDATE consolidated_invoices
		SET status = 'canceled', gateway_status = COALESCE($2, gateway_status),
		    status_version = status_version + 1, updated_at = $3
		WHERE id = $1`, id, nullIfEmpty(gatewayStatus), at); err != nil {
		return fmt.Errorf("cancel consolidated invoice: %w", err)
	}
	if _, err := r.q.Exec(ctx,
		`UPDATE consolidated_invoice_items SET active = false WHERE consolidated_id = $1`, id); err != nil {
		return fmt.Errorf("deactivate consolidated items: %w", err)
	}
	return nil
}

// ListOpenCharges consolidados pending con cobro, sin cambios ni consultas desde before.
func (r *ConsolidatedInvoiceRepo) ListOpenCharges(ctx context.Context, before time.Time, limit int) ([]*entity.ConsolidatedInvoice, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+consolidatedColumns+` FROM consolidated_invoices c
		WHERE c.gateway_payment_id IS NOT NULL AND c.status = 'pending' AND c.updated_at < $1
		  AND (c.last_synced_at IS NULL OR c.last_synced_at < $1)
		ORDER BY c.last_synced_at NULLS FIRST, c.updated_at, c.id
		LIMIT $2`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list open consolidated charges: %w", err)
	}
	defer rows.Close()
	var list []*entity.ConsolidatedInvoice
	for rows.Next() {
		c, err := scanConsolidated(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consolidated invoice: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// MarkSynced registra la consulta al gateway aunque el estado no haya cambiado.
func (r *ConsolidatedInvoiceRepo) MarkSynced(ctx context.Context, id string, at time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE consolidated_invoices SET last_synced_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("mark consolidated synced: %w", err)
	}
	return nil
}
