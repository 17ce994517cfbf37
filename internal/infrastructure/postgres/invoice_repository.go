package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	i.id, i.consumer_unit_id, i.subscriber_id, i.period, i.amount_due, i.due_date, i.consumption_kwh,
	i.status, i.gateway_payment_id, i.gateway_status, i.boleto_url, i.status_version,
	i.status_changed_at, i.last_synced_at, i.created_at, i.updated_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var gatewayID, gatewayStatus, boletoURL *string
	err := row.Scan(
		&inv.ID, &inv.ConsumerUnitID, &inv.SubscriberID, &inv.Period, &inv.AmountDue, &inv.DueDate,
		&inv.ConsumptionKWh, &inv.Status, &gatewayID, &gatewayStatus, &boletoURL, &inv.StatusVersion,
		&inv.StatusChangedAt, &inv.LastSyncedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.GatewayPaymentID = derefStr(gatewayID)
	inv.GatewayStatus = derefStr(gatewayStatus)
	inv.BoletoURL = derefStr(boletoURL)
	return &inv, nil
}

func (r *InvoiceRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// GetByID obtiene una factura por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices i WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetByIDs obtiene varias facturas; las inexistentes simplemente no aparecen.
func (r *InvoiceRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, "get invoices",
		`SELECT `+invoiceColumns+` FROM invoices i WHERE i.id = ANY($1::uuid[]) ORDER BY i.due_date, i.id`, ids)
}

// GetByGatewayPaymentID busca la factura vinculada a un cobro individual.
func (r *InvoiceRepo) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices i WHERE i.gateway_payment_id = $1`, gatewayPaymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice by gateway id: %w", err)
	}
	return inv, nil
}

// Coverage resuelve la variante de ChargeCoverage en una consulta.
// Un consolidado solo cubre si está pending o paid y el ítem sigue activo.
func (r *InvoiceRepo) Coverage(ctx context.Context, id string) (entity.ChargeCoverage, error) {
	query := `
		SELECT i.gateway_payment_id,
		       (SELECT c.id::text
		          FROM consolidated_invoice_items ci
		          JOIN consolidated_invoices c ON c.id = ci.consolidated_id
		         WHERE ci.invoice_id = i.id AND ci.active AND c.status IN ('pending', 'paid')
		         LIMIT 1)
		FROM invoices i WHERE i.id = $1`
	var gatewayID, consolidatedID *string
	if err := r.q.QueryRow(ctx, query, id).Scan(&gatewayID, &consolidatedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.ChargeCoverage{}, nil
		}
		return entity.ChargeCoverage{}, fmt.Errorf("invoice coverage: %w", err)
	}
	switch {
	case gatewayID != nil:
		return entity.DirectCharge(*gatewayID), nil
	case consolidatedID != nil:
		return entity.ConsolidatedMember(*consolidatedID), nil
	}
	return entity.Uncharged(), nil
}

// AttachCharge vincula el cobro solo si la factura sigue sin gateway_payment_id.
func (r *InvoiceRepo) AttachCharge(ctx context.Context, id string, link repository.ChargeLink) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET gateway_payment_id = $2, gateway_status = $3, boleto_url = $4, updated_at = now()
		WHERE id = $1 AND gateway_payment_id IS NULL`,
		id, link.GatewayPaymentID, nullIfEmpty(link.GatewayStatus), nullIfEmpty(link.BoletoURL))
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("attach charge: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateChargeTerms refleja valor y/o vencimiento aceptados por el gateway.
func (r *InvoiceRepo) UpdateChargeTerms(ctx context.Context, id string, amount *decimal.Decimal, dueDate *time.Time) error {
	_, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET amount_due = COALESCE($2, amount_due),
		    due_date   = COALESCE($3, due_date),
		    updated_at = now()
		WHERE id = $1`, id, amount, dueDate)
	if err != nil {
		return fmt.Errorf("update invoice charge terms: %w", err)
	}
	return nil
}

// UpdateStatus compare-and-swap sobre status_version.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, c repository.StatusChange) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET status = $3, gateway_status = COALESCE($4, gateway_status),
		    status_version = status_version + 1, status_changed_at = $5, updated_at = $5
		WHERE id = $1 AND status_version = $2`,
		c.ID, c.ExpectedVersion, c.Status, nullIfEmpty(c.GatewayStatus), c.ChangedAt)
	if err != nil {
		return false, fmt.Errorf("update invoice status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListOpenCharges facturas con cobro propio en a_vencer/atrasado sin cambios ni consultas desde before.
// Las nunca consultadas primero; después la consultada hace más tiempo.
func (r *InvoiceRepo) ListOpenCharges(ctx context.Context, before time.Time, limit int) ([]*entity.Invoice, error) {
	return r.list(ctx, "list open invoice charges", `
		SELECT `+invoiceColumns+` FROM invoices i
		WHERE i.gateway_payment_id IS NOT NULL
		  AND i.status IN ('a_vencer', 'atrasado')
		  AND i.status_changed_at < $1
		  AND (i.last_synced_at IS NULL OR i.last_synced_at < $1)
		ORDER BY i.last_synced_at NULLS FIRST, i.status_changed_at, i.id
		LIMIT $2`, before, limit)
}

// MarkSynced registra la consulta al gateway aunque el estado no haya cambiado.
func (r *InvoiceRepo) MarkSynced(ctx context.Context, id string, at time.Time) error {
	if _, err := r.q.Exec(ctx, `UPDATE invoices SET last_synced_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("mark invoice synced: %w", err)
	}
	return nil
}

// ListByConsolidated miembros activos de un consolidado.
func (r *InvoiceRepo) ListByConsolidated(ctx context.Context, consolidatedID string) ([]*entity.Invoice, error) {
	return r.list(ctx, "list consolidated members", `
		SELECT `+invoiceColumns+` FROM invoices i
		JOIN consolidated_invoice_items ci ON ci.invoice_id = i.id
		WHERE ci.consolidated_id = $1 AND ci.active
		ORDER BY i.due_date, i.id`, consolidatedID)
}
