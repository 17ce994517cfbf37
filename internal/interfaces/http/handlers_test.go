package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cobranca-api/internal/application/billing"
	"github.com/jhoicas/Cobranca-api/internal/application/dto"
	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Cobranca-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Cobranca-api/pkg/jwt"
)

const testWebhookToken = "whk-token"

// ── Mocks ─────────────────────────────────────────────────────────────────────

type eventHandlerMock struct{ mock.Mock }

func (m *eventHandlerMock) HandleEvent(ctx context.Context, ev billing.PaymentEvent) error {
	return m.Called(ctx, ev).Error(0)
}

type issuerMock struct{ mock.Mock }

func (m *issuerMock) IssueIndividual(ctx context.Context, subscriberID, invoiceID string, dueDate *time.Time) (*billing.IssueResult, error) {
	args := m.Called(ctx, subscriberID, invoiceID, dueDate)
	res, _ := args.Get(0).(*billing.IssueResult)
	return res, args.Error(1)
}

func (m *issuerMock) IssueConsolidated(ctx context.Context, subscriberID string, invoiceIDs []string, dueDate *time.Time) (*billing.IssueResult, error) {
	args := m.Called(ctx, subscriberID, invoiceIDs, dueDate)
	res, _ := args.Get(0).(*billing.IssueResult)
	return res, args.Error(1)
}

type mutatorMock struct{ mock.Mock }

func (m *mutatorMock) UpdateCharge(ctx context.Context, ref billing.ChargeRef, upd billing.ChargeUpdate) error {
	return m.Called(ctx, ref, upd).Error(0)
}

func (m *mutatorMock) CancelCharge(ctx context.Context, ref billing.ChargeRef) error {
	return m.Called(ctx, ref).Error(0)
}

type subscriberMock struct{ mock.Mock }

func (m *subscriberMock) Save(ctx context.Context, id string, in dto.SaveSubscriberRequest) (*dto.SaveSubscriberResponse, error) {
	args := m.Called(ctx, id, in)
	res, _ := args.Get(0).(*dto.SaveSubscriberResponse)
	return res, args.Error(1)
}

type coverageMock struct{ mock.Mock }

func (m *coverageMock) Coverage(ctx context.Context, invoiceID string) (*dto.CoverageResponse, error) {
	args := m.Called(ctx, invoiceID)
	res, _ := args.Get(0).(*dto.CoverageResponse)
	return res, args.Error(1)
}

type statementMock struct{ mock.Mock }

func (m *statementMock) DownloadConsolidatedPDF(ctx context.Context, id string) ([]byte, string, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).([]byte)
	return b, args.String(1), args.Error(2)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type mocks struct {
	events     *eventHandlerMock
	issuer     *issuerMock
	mutator    *mutatorMock
	subs       *subscriberMock
	coverage   *coverageMock
	statements *statementMock
}

func newTestRouter(t *testing.T) (*fiber.App, *mocks) {
	t.Helper()
	m := &mocks{
		events:     &eventHandlerMock{},
		issuer:     &issuerMock{},
		mutator:    &mutatorMock{},
		subs:       &subscriberMock{},
		coverage:   &coverageMock{},
		statements: &statementMock{},
	}
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Webhook:      m.events,
		Issuer:       m.issuer,
		Mutator:      m.mutator,
		Subscribers:  m.subs,
		Coverage:     m.coverage,
		Statements:   m.statements,
		JWTSecret:    testJWTSecret,
		WebhookToken: testWebhookToken,
		Log:          zerolog.Nop(),
	})
	t.Cleanup(func() {
		m.events.AssertExpectations(t)
		m.issuer.AssertExpectations(t)
		m.mutator.AssertExpectations(t)
		m.subs.AssertExpectations(t)
		m.coverage.AssertExpectations(t)
		m.statements.AssertExpectations(t)
	})
	return app, m
}

func send(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (*http.Response, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func operator(t *testing.T, scope string) map[string]string {
	return map[string]string{"Authorization": tokenForScope(t, scope)}
}

func webhookHeaders() map[string]string {
	return map[string]string{"asaas-access-token": testWebhookToken}
}

const receivedBody = `{"id":"evt_1","event":"PAYMENT_RECEIVED","payment":{"id":"pay_1","status":"RECEIVED","externalReference":"inv:1"}}`

// ── Webhook ───────────────────────────────────────────────────────────────────

func TestWebhook_AppliedEventIsAcknowledged(t *testing.T) {
	app, m := newTestRouter(t)
	m.events.On("HandleEvent", mock.Anything, mock.MatchedBy(func(ev billing.PaymentEvent) bool {
		return ev.ID == "evt_1" && ev.Event == "PAYMENT_RECEIVED" && ev.Payment.ID == "pay_1"
	})).Return(nil).Once()

	resp, body := send(t, app, http.MethodPost, "/webhooks/payment-events", receivedBody, webhookHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])
}

func TestWebhook_SkipIsAcknowledged(t *testing.T) {
	app, m := newTestRouter(t)
	m.events.On("HandleEvent", mock.Anything, mock.Anything).
		Return(&domain.ReconciliationSkip{Reason: "evento no mapeado"}).Once()

	resp, body := send(t, app, http.MethodPost, "/webhooks/payment-events",
		`{"id":"evt_2","event":"PAYMENT_CREATED","payment":{"id":"pay_x"}}`, webhookHeaders())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["received"])
}

func TestWebhook_ValidationErrorIs400(t *testing.T) {
	app, m := newTestRouter(t)
	m.events.On("HandleEvent", mock.Anything, mock.Anything).
		Return(domain.NewValidationError("payment.id", "requerido")).Once()

	resp, body := send(t, app, http.MethodPost, "/webhooks/payment-events", `{"event":"PAYMENT_RECEIVED"}`, webhookHeaders())

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "payment.id")
}

func TestWebhook_MalformedBodyIs400(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, body := send(t, app, http.MethodPost, "/webhooks/payment-events", `{"event":`, webhookHeaders())

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestWebhook_InfrastructureFailureIs500(t *testing.T) {
	app, m := newTestRouter(t)
	m.events.On("HandleEvent", mock.Anything, mock.Anything).Return(errors.New("conexión rechazada")).Once()

	resp, body := send(t, app, http.MethodPost, "/webhooks/payment-events", receivedBody, webhookHeaders())

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "conexión rechazada", body["error"])
}

func TestWebhook_WrongTokenIs401(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, _ := send(t, app, http.MethodPost, "/webhooks/payment-events", receivedBody,
		map[string]string{"asaas-access-token": "otro"})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ── Charges ───────────────────────────────────────────────────────────────────

func TestIssueCharge_Individual(t *testing.T) {
	app, m := newTestRouter(t)
	due := time.Date(2026, 11, 10, 0, 0, 0, 0, time.UTC)
	m.issuer.On("IssueIndividual", mock.Anything, "9a1d7e44-2c3b-4b8f-8e6d-000000000001", "3f6b1c2e-8d4a-4f1e-9a2b-000000000001", mock.MatchedBy(func(d *time.Time) bool {
		return d != nil && d.Equal(due)
	})).Return(&billing.IssueResult{
		GatewayChargeID: "pay_123",
		BoletoURL:       "https://boleto/pay_123",
		Value:           decimal.RequireFromString("150.50"),
		DueDate:         due,
	}, nil).Once()

	resp, body := send(t, app, http.MethodPost, "/api/charges",
		`{"subscriber_id":"9a1d7e44-2c3b-4b8f-8e6d-000000000001","mode":"individual","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001"],"due_date":"2026-11-10"}`,
		operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "pay_123", body["gateway_charge_id"])
	assert.Equal(t, "https://boleto/pay_123", body["boleto_url"])
	assert.Equal(t, "2026-11-10", body["due_date"])
}

func TestIssueCharge_IndividualRequiresExactlyOneInvoice(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, body := send(t, app, http.MethodPost, "/api/charges",
		`{"subscriber_id":"9a1d7e44-2c3b-4b8f-8e6d-000000000001","mode":"individual","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001","3f6b1c2e-8d4a-4f1e-9a2b-000000000002"]}`,
		operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", body["code"])
}

func TestIssueCharge_ConsolidatedWithoutDueDate(t *testing.T) {
	app, m := newTestRouter(t)
	m.issuer.On("IssueConsolidated", mock.Anything, "9a1d7e44-2c3b-4b8f-8e6d-000000000001", []string{"3f6b1c2e-8d4a-4f1e-9a2b-000000000001", "3f6b1c2e-8d4a-4f1e-9a2b-000000000002"}, (*time.Time)(nil)).
		Return(&billing.IssueResult{
			GatewayChargeID:       "pay_9",
			ConsolidatedInvoiceID: "c0a8f3d2-5e7b-4a19-b6c4-000000000001",
			Value:                 decimal.RequireFromString("300"),
			DueDate:               time.Date(2026, 11, 10, 0, 0, 0, 0, time.UTC),
		}, nil).Once()

	resp, body := send(t, app, http.MethodPost, "/api/charges",
		`{"subscriber_id":"9a1d7e44-2c3b-4b8f-8e6d-000000000001","mode":"consolidated","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001","3f6b1c2e-8d4a-4f1e-9a2b-000000000002"]}`,
		operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "c0a8f3d2-5e7b-4a19-b6c4-000000000001", body["consolidated_invoice_id"])
}

func TestIssueCharge_InvalidDueDateIs400(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, _ := send(t, app, http.MethodPost, "/api/charges",
		`{"subscriber_id":"9a1d7e44-2c3b-4b8f-8e6d-000000000001","mode":"consolidated","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001"],"due_date":"10/11/2026"}`,
		operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIssueCharge_ConfigurationErrorIsVerbatim(t *testing.T) {
	app, m := newTestRouter(t)
	cfgErr := &domain.ConfigurationError{Service: "asaas", Environment: "production", Missing: []string{"production_api_key"}}
	m.issuer.On("IssueIndividual", mock.Anything, "", "3f6b1c2e-8d4a-4f1e-9a2b-000000000001", (*time.Time)(nil)).Return(nil, cfgErr).Once()

	resp, body := send(t, app, http.MethodPost, "/api/charges",
		`{"mode":"individual","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001"]}`, operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "CONFIGURATION", body["code"])
	assert.Equal(t, cfgErr.Error(), body["message"])
}

func TestIssueCharge_GatewayErrorIs502(t *testing.T) {
	app, m := newTestRouter(t)
	m.issuer.On("IssueIndividual", mock.Anything, "", "3f6b1c2e-8d4a-4f1e-9a2b-000000000001", (*time.Time)(nil)).
		Return(nil, &domain.GatewayError{Op: "create_payment", Status: 400, Description: "CPF inválido"}).Once()

	resp, body := send(t, app, http.MethodPost, "/api/charges",
		`{"mode":"individual","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001"]}`, operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "GATEWAY", body["code"])
	assert.Contains(t, body["message"], "CPF inválido")
}

func TestIssueCharge_ReadScopeIsForbidden(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, _ := send(t, app, http.MethodPost, "/api/charges",
		`{"mode":"individual","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001"]}`, operator(t, pkgjwt.ScopeBillingRead))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpdateCharge_PassesChanges(t *testing.T) {
	app, m := newTestRouter(t)
	m.mutator.On("UpdateCharge", mock.Anything,
		billing.ChargeRef{Kind: entity.ChargeKindInvoice, ID: "3f6b1c2e-8d4a-4f1e-9a2b-000000000001"},
		mock.MatchedBy(func(u billing.ChargeUpdate) bool {
			return u.Value != nil && u.Value.Equal(decimal.RequireFromString("99.9")) && u.DueDate == nil
		})).Return(nil).Once()

	resp, body := send(t, app, http.MethodPut, "/api/charges/invoice/3f6b1c2e-8d4a-4f1e-9a2b-000000000001", `{"value":"99.9"}`,
		operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestUpdateCharge_UnknownKindIs400(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, _ := send(t, app, http.MethodPut, "/api/charges/boleto/3f6b1c2e-8d4a-4f1e-9a2b-000000000001", `{"value":"10"}`,
		operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancelCharge_Success(t *testing.T) {
	app, m := newTestRouter(t)
	m.mutator.On("CancelCharge", mock.Anything, billing.ChargeRef{Kind: entity.ChargeKindConsolidated, ID: "c0a8f3d2-5e7b-4a19-b6c4-000000000001"}).
		Return(nil).Once()

	resp, body := send(t, app, http.MethodDelete, "/api/charges/consolidated/c0a8f3d2-5e7b-4a19-b6c4-000000000001", "", operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
}

func TestCancelCharge_ConflictIs409(t *testing.T) {
	app, m := newTestRouter(t)
	m.mutator.On("CancelCharge", mock.Anything, billing.ChargeRef{Kind: entity.ChargeKindInvoice, ID: "3f6b1c2e-8d4a-4f1e-9a2b-000000000001"}).
		Return(domain.ErrConflict).Once()

	resp, body := send(t, app, http.MethodDelete, "/api/charges/invoice/3f6b1c2e-8d4a-4f1e-9a2b-000000000001", "", operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestCharges_RequireToken(t *testing.T) {
	app, _ := newTestRouter(t)

	resp, _ := send(t, app, http.MethodDelete, "/api/charges/invoice/3f6b1c2e-8d4a-4f1e-9a2b-000000000001", "", nil)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ── Subscribers ───────────────────────────────────────────────────────────────

func TestSaveSubscriber_ReturnsSyncResult(t *testing.T) {
	app, m := newTestRouter(t)
	m.subs.On("Save", mock.Anything, "9a1d7e44-2c3b-4b8f-8e6d-000000000001", mock.MatchedBy(func(in dto.SaveSubscriberRequest) bool {
		return in.Name == "Maria" && in.Document == "52998224725"
	})).Return(&dto.SaveSubscriberResponse{
		Subscriber: dto.SubscriberResponse{ID: "9a1d7e44-2c3b-4b8f-8e6d-000000000001", Name: "Maria"},
		Synced:     false,
		SyncError:  "gateway indisponível",
	}, nil).Once()

	resp, body := send(t, app, http.MethodPut, "/api/subscribers/9a1d7e44-2c3b-4b8f-8e6d-000000000001",
		`{"name":"Maria","document":"52998224725","billing_mode":"individualized","status":"ativado","discount_pct":"0"}`,
		operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["synced"])
	assert.Equal(t, "gateway indisponível", body["sync_error"])
}

func TestSaveSubscriber_DuplicateDocumentIs409(t *testing.T) {
	app, m := newTestRouter(t)
	m.subs.On("Save", mock.Anything, "9a1d7e44-2c3b-4b8f-8e6d-000000000002", mock.Anything).Return(nil, domain.ErrDuplicateDocument).Once()

	resp, body := send(t, app, http.MethodPut, "/api/subscribers/9a1d7e44-2c3b-4b8f-8e6d-000000000002",
		`{"name":"João","document":"52998224725"}`, operator(t, pkgjwt.ScopeBillingWrite))

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_DOCUMENT", body["code"])
}

// ── Invoices ──────────────────────────────────────────────────────────────────

func TestCoverage_NotFoundIs404(t *testing.T) {
	app, m := newTestRouter(t)
	m.coverage.On("Coverage", mock.Anything, "3f6b1c2e-8d4a-4f1e-9a2b-000000000404").Return(nil, domain.ErrNotFound).Once()

	resp, _ := send(t, app, http.MethodGet, "/api/invoices/3f6b1c2e-8d4a-4f1e-9a2b-000000000404/coverage", "", operator(t, pkgjwt.ScopeBillingRead))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCoverage_ConsolidatedMember(t *testing.T) {
	app, m := newTestRouter(t)
	m.coverage.On("Coverage", mock.Anything, "3f6b1c2e-8d4a-4f1e-9a2b-000000000001").Return(&dto.CoverageResponse{
		InvoiceID:      "3f6b1c2e-8d4a-4f1e-9a2b-000000000001",
		Kind:           "consolidated_member",
		ConsolidatedID: "c0a8f3d2-5e7b-4a19-b6c4-000000000001",
	}, nil).Once()

	resp, body := send(t, app, http.MethodGet, "/api/invoices/3f6b1c2e-8d4a-4f1e-9a2b-000000000001/coverage", "", operator(t, pkgjwt.ScopeBillingRead))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "consolidated_member", body["kind"])
	assert.Equal(t, "c0a8f3d2-5e7b-4a19-b6c4-000000000001", body["consolidated_invoice_id"])
}

func TestConsolidatedPDF_IsAttachment(t *testing.T) {
	app, m := newTestRouter(t)
	m.statements.On("DownloadConsolidatedPDF", mock.Anything, "c0a8f3d2-5e7b-4a19-b6c4-000000000001").
		Return([]byte("%PDF-1.3 fake"), "fatura_consolidada_2026-11.pdf", nil).Once()

	resp, _ := send(t, app, http.MethodGet, "/api/consolidated-invoices/c0a8f3d2-5e7b-4a19-b6c4-000000000001/pdf", "", operator(t, pkgjwt.ScopeBillingRead))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "fatura_consolidada_2026-11.pdf")
}

// ── Ids mal formados ──────────────────────────────────────────────────────────

func TestMalformedIDsAreRejectedBeforeUseCases(t *testing.T) {
	cases := []struct {
		name, method, path, body, scope, field string
	}{
		{"update con id inválido", http.MethodPut, "/api/charges/invoice/abc", `{"value":"10"}`, pkgjwt.ScopeBillingWrite, "id"},
		{"cancel con id inválido", http.MethodDelete, "/api/charges/consolidated/abc", "", pkgjwt.ScopeBillingWrite, "id"},
		{"consolidado con factura inválida", http.MethodPost, "/api/charges",
			`{"subscriber_id":"9a1d7e44-2c3b-4b8f-8e6d-000000000001","mode":"consolidated","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001","inv-x"]}`,
			pkgjwt.ScopeBillingWrite, "invoice_ids"},
		{"individual con factura inválida", http.MethodPost, "/api/charges",
			`{"mode":"individual","invoice_ids":["inv-x"]}`, pkgjwt.ScopeBillingWrite, "invoice_ids"},
		{"suscriptor inválido", http.MethodPost, "/api/charges",
			`{"subscriber_id":"sub-x","mode":"consolidated","invoice_ids":["3f6b1c2e-8d4a-4f1e-9a2b-000000000001"]}`,
			pkgjwt.ScopeBillingWrite, "subscriber_id"},
		{"guardar suscriptor", http.MethodPut, "/api/subscribers/abc", `{"name":"Maria"}`, pkgjwt.ScopeBillingWrite, "id"},
		{"originador inválido", http.MethodPut, "/api/subscribers/9a1d7e44-2c3b-4b8f-8e6d-000000000001",
			`{"name":"Maria","originator_id":"orig-1"}`, pkgjwt.ScopeBillingWrite, "originator_id"},
		{"cobertura", http.MethodGet, "/api/invoices/abc/coverage", "", pkgjwt.ScopeBillingRead, "id"},
		{"pdf", http.MethodGet, "/api/consolidated-invoices/abc/pdf", "", pkgjwt.ScopeBillingRead, "id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Los mocks sin expectativas fallan si el handler llega al caso de uso.
			app, _ := newTestRouter(t)

			resp, body := send(t, app, tc.method, tc.path, tc.body, operator(t, tc.scope))

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "VALIDATION", body["code"])
			assert.Contains(t, body["message"], tc.field)
		})
	}
}

func TestInternalErrorDoesNotExposeCause(t *testing.T) {
	app, m := newTestRouter(t)
	m.coverage.On("Coverage", mock.Anything, "3f6b1c2e-8d4a-4f1e-9a2b-000000000001").
		Return(nil, errors.New("ERROR: relation \"invoices\" does not exist (SQLSTATE 42P01)")).Once()

	resp, body := send(t, app, http.MethodGet, "/api/invoices/3f6b1c2e-8d4a-4f1e-9a2b-000000000001/coverage", "",
		operator(t, pkgjwt.ScopeBillingRead))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL", body["code"])
	assert.NotContains(t, body["message"], "SQLSTATE")
}
