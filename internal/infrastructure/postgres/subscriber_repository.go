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

var _ repository.SubscriberRepository = (*SubscriberRepo)(nil)

// SubscriberRepo implementación de SubscriberRepository (usable con pool o tx).
type SubscriberRepo struct {
	q Querier
}

// NewSubscriberRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSubscriberRepository(q Querier) *SubscriberRepo {
	return &SubscriberRepo{q: q}
}

const subscriberColumns = `
	id, name, document, COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(street, ''), COALESCE(number, ''), COALESCE(complement, ''), COALESCE(district, ''),
	COALESCE(city, ''), COALESCE(state, ''), COALESCE(postal_code, ''),
	billing_mode, consolidated_due_day, gateway_customer_id, status, originator_id::text,
	discount_pct, tariff, created_at, updated_at`

func scanSubscriber(row pgx.Row) (*entity.Subscriber, error) {
	var s entity.Subscriber
	var gatewayID, originatorID *string
	var tariff decimal.NullDecimal
	err := row.Scan(
		&s.ID, &s.Name, &s.Document, &s.Email, &s.Phone,
		&s.Address.Street, &s.Address.Number, &s.Address.Complement, &s.Address.District,
		&s.Address.City, &s.Address.State, &s.Address.PostalCode,
		&s.BillingMode, &s.ConsolidatedDueDay, &gatewayID, &s.Status, &originatorID,
		&s.DiscountPct, &tariff, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.GatewayCustomerID = derefStr(gatewayID)
	s.OriginatorID = derefStr(originatorID)
	if tariff.Valid {
		s.Tariff = tariff.Decimal
	}
	return &s, nil
}

// GetByID obtiene un suscriptor por ID.
func (r *SubscriberRepo) GetByID(ctx context.Context, id string) (*entity.Subscriber, error) {
	s, err := scanSubscriber(r.q.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return s, nil
}

// GetByDocument obtiene un suscriptor por CPF/CNPJ.
func (r *SubscriberRepo) GetByDocument(ctx context.Context, document string) (*entity.Subscriber, error) {
	s, err := scanSubscriber(r.q.QueryRow(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE document = $1`, document))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscriber by document: %w", err)
	}
	return s, nil
}

// Save inserta o actualiza el perfil. gateway_customer_id solo cambia vía SetGatewayCustomerID.
func (r *SubscriberRepo) Save(ctx context.Context, s *entity.Subscriber) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	var tariff any
	if !s.Tariff.IsZero() {
		tariff = s.Tariff
	}
	query := `
		INSERT INTO subscribers (id, name, document, email, phone, street, number, complement, district,
		                         city, state, postal_code, billing_mode, consolidated_due_day, status,
		                         originator_id, discount_pct, tariff, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, document = EXCLUDED.document, email = EXCLUDED.email, phone = EXCLUDED.phone,
		    street = EXCLUDED.street, number = EXCLUDED.number, complement = EXCLUDED.complement,
		    district = EXCLUDED.district, city = EXCLUDED.city, state = EXCLUDED.state,
		    postal_code = EXCLUDED.postal_code, billing_mode = EXCLUDED.billing_mode,
		    consolidated_due_day = EXCLUDED.consolidated_due_day, status = EXCLUDED.status,
		    originator_id = EXCLUDED.originator_id, discount_pct = EXCLUDED.discount_pct,
		    tariff = EXCLUDED.tariff, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.Name, s.Document, nullIfEmpty(s.Email), nullIfEmpty(s.Phone),
		nullIfEmpty(s.Address.Street), nullIfEmpty(s.Address.Number), nullIfEmpty(s.Address.Complement),
		nullIfEmpty(s.Address.District), nullIfEmpty(s.Address.City), nullIfEmpty(s.Address.State),
		nullIfEmpty(s.Address.PostalCode), s.BillingMode, s.ConsolidatedDueDay, s.Status,
		nullIfEmpty(s.OriginatorID), s.DiscountPct, tariff, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateDocument
		}
		return fmt.Errorf("save subscriber: %w", err)
	}
	return nil
}

// SetGatewayCustomerID persiste el id de cliente del gateway.
func (r *SubscriberRepo) SetGatewayCustomerID(ctx context.Context, id, gatewayCustomerID string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE subscribers SET gateway_customer_id = $2, updated_at = now() WHERE id = $1`,
		id, nullIfEmpty(gatewayCustomerID))
	if err != nil {
		return fmt.Errorf("set gateway customer id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
