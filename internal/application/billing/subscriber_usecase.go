package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/application/dto"
	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/pkg/document"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SubscriberUseCase guarda suscriptores y dispara sus efectos (activación, sincronización con el gateway).
type SubscriberUseCase struct {
	repo      repository.SubscriberRepository
	customers *CustomerSyncUseCase
	effects   *Effects
	log       zerolog.Logger
}

// NewSubscriberUseCase construye el caso de uso.
func NewSubscriberUseCase(repo repository.SubscriberRepository, customers *CustomerSyncUseCase, effects *Effects, log zerolog.Logger) *SubscriberUseCase {
	return &SubscriberUseCase{repo: repo, customers: customers, effects: effects, log: log}
}

// Save crea o actualiza el suscriptor id.
// El documento no puede pertenecer a otro suscriptor. La comisión de activación se dispara solo al
// entrar en ativado. La sincronización con el gateway no impide el guardado.
func (uc *SubscriberUseCase) Save(ctx context.Context, id string, in dto.SaveSubscriberRequest) (*dto.SaveSubscriberResponse, error) {
	if err := validateSubscriber(id, in); err != nil {
		return nil, err
	}
	doc := document.Digits(in.Document)

	dup, err := uc.repo.GetByDocument(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("buscar documento: %w", err)
	}
	if dup != nil && dup.ID != id {
		return nil, domain.ErrDuplicateDocument
	}

	existing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener suscriptor: %w", err)
	}
	now := time.Now()
	sub := &entity.Subscriber{ID: id, CreatedAt: now}
	prevStatus := ""
	if existing != nil {
		sub = existing
		prevStatus = existing.Status
	}
	sub.Name = strings.TrimSpace(in.Name)
	sub.Document = doc
	sub.Email = strings.TrimSpace(in.Email)
	sub.Phone = strings.TrimSpace(in.Phone)
	sub.Address = entity.Address{
		Street:     in.Address.Street,
		Number:     in.Address.Number,
		Complement: in.Address.Complement,
		District:   in.Address.District,
		City:       in.Address.City,
		State:      in.Address.State,
		PostalCode: in.Address.PostalCode,
	}
	sub.BillingMode = in.BillingMode
	sub.ConsolidatedDueDay = in.ConsolidatedDueDay
	sub.Status = in.Status
	sub.OriginatorID = in.OriginatorID
	sub.DiscountPct = in.DiscountPct
	sub.Tariff = decimal.Zero
	if in.Tariff != nil {
		sub.Tariff = *in.Tariff
	}
	sub.UpdatedAt = now

	if err := uc.repo.Save(ctx, sub); err != nil {
		return nil, err
	}

	if prevStatus != entity.SubscriberStatusActivated && sub.Status == entity.SubscriberStatusActivated {
		uc.log.Info().Str("subscriber_id", sub.ID).Str("from", prevStatus).Msg("suscriptor activado")
		uc.effects.Activated(sub.ID)
	}

	out := &dto.SaveSubscriberResponse{}
	customerID, syncErr := uc.customers.Resolve(ctx, sub)
	if customerID != "" {
		sub.GatewayCustomerID = customerID
	}
	if syncErr != nil {
		uc.log.Warn().Err(syncErr).Str("subscriber_id", sub.ID).Msg("suscriptor guardado sin sincronizar con el gateway")
		out.SyncError = syncErr.Error()
	} else {
		out.Synced = true
	}
	out.Subscriber = toSubscriberResponse(sub)
	return out, nil
}

func validateSubscriber(id string, in dto.SaveSubscriberRequest) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError("id", "obligatorio")
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.NewValidationError("name", "obligatorio")
	}
	if err := document.Validate(in.Document); err != nil {
		return domain.NewValidationError("document", err.Error())
	}
	switch in.BillingMode {
	case entity.BillingModeConsolidated:
		if in.ConsolidatedDueDay < 1 || in.ConsolidatedDueDay > 31 {
			return domain.NewValidationError("consolidated_due_day", "debe estar entre 1 y 31")
		}
	case entity.BillingModeIndividualized:
	default:
		return domain.NewValidationError("billing_mode", "debe ser consolidated o individualized")
	}
	switch in.Status {
	case entity.SubscriberStatusLead, entity.SubscriberStatusNegotiation,
		entity.SubscriberStatusActivated, entity.SubscriberStatusCanceled:
	default:
		return domain.NewValidationError("status", "estado desconocido")
	}
	if in.DiscountPct.IsNegative() || in.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
		return domain.NewValidationError("discount_pct", "fuera de rango")
	}
	if in.Tariff != nil && in.Tariff.IsNegative() {
		return domain.NewValidationError("tariff", "no puede ser negativa")
	}
	return nil
}

func toSubscriberResponse(s *entity.Subscriber) dto.SubscriberResponse {
	return dto.SubscriberResponse{
		ID:       s.ID,
		Name:     s.Name,
		Document: s.Document,
		Email:    s.Email,
		Phone:    s.Phone,
		Address: dto.AddressDTO{
			Street:     s.Address.Street,
			Number:     s.Address.Number,
			Complement: s.Address.Complement,
			District:   s.Address.District,
			City:       s.Address.City,
			State:      s.Address.State,
			PostalCode: s.Address.PostalCode,
		},
		BillingMode:        s.BillingMode,
		ConsolidatedDueDay: s.ConsolidatedDueDay,
		Status:             s.Status,
		OriginatorID:       s.OriginatorID,
		DiscountPct:        s.DiscountPct,
		GatewayCustomerID:  s.GatewayCustomerID,
	}
}
