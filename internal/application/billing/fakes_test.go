package billing_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/application/billing"
	"github.com/jhoicas/Cobranca-api/internal/application/sideeffect"
	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/jhoicas/Cobranca-api/internal/domain/repository"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/gateway"
	"github.com/jhoicas/Cobranca-api/internal/infrastructure/lock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios en memoria
// ──────────────────────────────────────────────────────────────────────────────

type store struct {
	mu           sync.Mutex
	subscribers  map[string]*entity.Subscriber
	invoices     map[string]*entity.Invoice
	consolidated map[string]*entity.ConsolidatedInvoice
	items        map[string]string // invoice → consolidado activo
}

func newStore() *store {
	return &store{
		subscribers:  map[string]*entity.Subscriber{},
		invoices:     map[string]*entity.Invoice{},
		consolidated: map[string]*entity.ConsolidatedInvoice{},
		items:        map[string]string{},
	}
}

func (s *store) putSubscriber(sub *entity.Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sub
	s.subscribers[sub.ID] = &c
}

func (s *store) putInvoice(inv *entity.Invoice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *inv
	s.invoices[inv.ID] = &c
}

func (s *store) invoice(id string) *entity.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.invoices[id]
	return &c
}

func (s *store) consolidatedInvoice(id string) *entity.ConsolidatedInvoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *s.consolidated[id]
	return &c
}

type subscriberRepo struct{ s *store }

func (r subscriberRepo) GetByID(_ context.Context, id string) (*entity.Subscriber, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subscribers[id]
	if !ok {
		return nil, nil
	}
	c := *sub
	return &c, nil
}

func (r subscriberRepo) GetByDocument(_ context.Context, doc string) (*entity.Subscriber, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.subscribers {
		if sub.Document == doc {
			c := *sub
			return &c, nil
		}
	}
	return nil, nil
}

func (r subscriberRepo) Save(_ context.Context, sub *entity.Subscriber) error {
	r.s.putSubscriber(sub)
	return nil
}

func (r subscriberRepo) SetGatewayCustomerID(_ context.Context, id, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subscribers[id]
	if !ok {
		return domain.ErrNotFound
	}
	sub.GatewayCustomerID = customerID
	return nil
}

type invoiceRepo struct{ s *store }

func (r invoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	c := *inv
	return &c, nil
}

func (r invoiceRepo) GetByIDs(ctx context.Context, ids []string) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, id := range ids {
		inv, _ := r.GetByID(ctx, id)
		if inv != nil {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r invoiceRepo) GetByGatewayPaymentID(_ context.Context, paymentID string) (*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invoices {
		if inv.GatewayPaymentID == paymentID {
			c := *inv
			return &c, nil
		}
	}
	return nil, nil
}

func (r invoiceRepo) Coverage(_ context.Context, id string) (entity.ChargeCoverage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return entity.ChargeCoverage{}, domain.ErrNotFound
	}
	if inv.GatewayPaymentID != "" {
		return entity.DirectCharge(inv.GatewayPaymentID), nil
	}
	if cid, ok := r.s.items[id]; ok && r.s.consolidated[cid].IsActive() {
		return entity.ConsolidatedMember(cid), nil
	}
	return entity.Uncharged(), nil
}

func (r invoiceRepo) AttachCharge(_ context.Context, id string, link repository.ChargeLink) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.GatewayPaymentID != "" {
		return false, nil
	}
	inv.GatewayPaymentID = link.GatewayPaymentID
	inv.GatewayStatus = link.GatewayStatus
	inv.BoletoURL = link.BoletoURL
	return true, nil
}

func (r invoiceRepo) UpdateChargeTerms(_ context.Context, id string, amount *decimal.Decimal, dueDate *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv := r.s.invoices[id]
	if amount != nil {
		inv.AmountDue = *amount
	}
	if dueDate != nil {
		inv.DueDate = *dueDate
	}
	return nil
}

func (r invoiceRepo) UpdateStatus(_ context.Context, ch repository.StatusChange) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[ch.ID]
	if !ok || inv.StatusVersion != ch.ExpectedVersion {
		return false, nil
	}
	inv.Status = ch.Status
	if ch.GatewayStatus != "" {
		inv.GatewayStatus = ch.GatewayStatus
	}
	inv.StatusVersion++
	inv.StatusChangedAt = ch.ChangedAt
	return true, nil
}

func (r invoiceRepo) ListOpenCharges(_ context.Context, before time.Time, limit int) ([]*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		open := inv.Status == entity.InvoiceStatusPending || inv.Status == entity.InvoiceStatusOverdue
		if inv.GatewayPaymentID != "" && open && inv.StatusChangedAt.Before(before) && syncedBefore(inv.LastSyncedAt, before) {
			c := *inv
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := out[i].LastSyncedAt, out[j].LastSyncedAt; !sameSync(a, b) {
			return syncedFirst(a, b)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r invoiceRepo) MarkSynced(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv, ok := r.s.invoices[id]; ok {
		inv.LastSyncedAt = &at
	}
	return nil
}

// syncedBefore, sameSync y syncedFirst reproducen "last_synced_at NULLS FIRST".
func syncedBefore(at *time.Time, before time.Time) bool {
	return at == nil || at.Before(before)
}

func sameSync(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func syncedFirst(a, b *time.Time) bool {
	if a == nil {
		return true
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

func (r invoiceRepo) ListByConsolidated(_ context.Context, consolidatedID string) ([]*entity.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Invoice
	for invID, cid := range r.s.items {
		if cid == consolidatedID {
			c := *r.s.invoices[invID]
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type consolidatedRepo struct{ s *store }

func (r consolidatedRepo) Create(_ context.Context, c *entity.ConsolidatedInvoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range c.InvoiceIDs {
		if cid, ok := r.s.items[id]; ok && r.s.consolidated[cid].IsActive() {
			return fmt.Errorf("%w: factura %s ya es miembro", domain.ErrConflict, id)
		}
	}
	cp := *c
	cp.InvoiceIDs = append([]string(nil), c.InvoiceIDs...)
	r.s.consolidated[c.ID] = &cp
	for _, id := range c.InvoiceIDs {
		r.s.items[id] = c.ID
	}
	return nil
}

func (r consolidatedRepo) GetByID(_ context.Context, id string) (*entity.ConsolidatedInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.consolidated[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r consolidatedRepo) GetByGatewayPaymentID(_ context.Context, paymentID string) (*entity.ConsolidatedInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.consolidated {
		if c.GatewayPaymentID == paymentID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r consolidatedRepo) UpdateChargeTerms(_ context.Context, id string, total *decimal.Decimal, dueDate *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.s.consolidated[id]
	if total != nil {
		c.TotalValue = *total
	}
	if dueDate != nil {
		c.DueDate = *dueDate
	}
	return nil
}

func (r consolidatedRepo) UpdateStatus(_ context.Context, ch repository.StatusChange) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.consolidated[ch.ID]
	if !ok || c.StatusVersion != ch.ExpectedVersion {
		return false, nil
	}
	c.Status = ch.Status
	if ch.GatewayStatus != "" {
		c.GatewayStatus = ch.GatewayStatus
	}
	c.StatusVersion++
	return true, nil
}

func (r consolidatedRepo) Deactivate(_ context.Context, id string, gatewayStatus string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.s.consolidated[id]
	c.Status = entity.ConsolidatedStatusCanceled
	if gatewayStatus != "" {
		c.GatewayStatus = gatewayStatus
	}
	c.StatusVersion++
	c.UpdatedAt = at
	for invID, cid := range r.s.items {
		if cid == id {
			delete(r.s.items, invID)
		}
	}
	return nil
}

func (r consolidatedRepo) ListOpenCharges(_ context.Context, before time.Time, limit int) ([]*entity.ConsolidatedInvoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ConsolidatedInvoice
	for _, c := range r.s.consolidated {
		if c.GatewayPaymentID != "" && c.Status == entity.ConsolidatedStatusPending && c.UpdatedAt.Before(before) && syncedBefore(c.LastSyncedAt, before) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := out[i].LastSyncedAt, out[j].LastSyncedAt; !sameSync(a, b) {
			return syncedFirst(a, b)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r consolidatedRepo) MarkSynced(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c, ok := r.s.consolidated[id]; ok {
		c.LastSyncedAt = &at
	}
	return nil
}

type txRunner struct{ s *store }

func (t txRunner) RunBilling(_ context.Context, fn func(repository.InvoiceRepository, repository.ConsolidatedInvoiceRepository) error) error {
	return fn(invoiceRepo{t.s}, consolidatedRepo{t.s})
}

type ledgerRepo struct {
	mu      sync.Mutex
	entries []*entity.LedgerEntry
}

func (r *ledgerRepo) Append(_ context.Context, e *entity.LedgerEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.entries {
		if x.IdempotencyKey == e.IdempotencyKey {
			return false, nil
		}
	}
	c := *e
	r.entries = append(r.entries, &c)
	return true, nil
}

func (r *ledgerRepo) ListByReference(_ context.Context, refType, refID string) ([]*entity.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.LedgerEntry
	for _, x := range r.entries {
		if x.ReferenceType == refType && x.ReferenceID == refID {
			out = append(out, x)
		}
	}
	return out, nil
}

func (r *ledgerRepo) all() []*entity.LedgerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.LedgerEntry(nil), r.entries...)
}

type attemptRepo struct {
	mu       sync.Mutex
	attempts []*entity.ChargeAttempt
}

func (r *attemptRepo) Create(_ context.Context, a *entity.ChargeAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *a
	c.ID = fmt.Sprintf("att_%d", len(r.attempts)+1)
	a.ID = c.ID
	r.attempts = append(r.attempts, &c)
	return nil
}

func (r *attemptRepo) ListUnknown(_ context.Context, limit int) ([]*entity.ChargeAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ChargeAttempt
	for _, a := range r.attempts {
		if a.State == entity.AttemptStateUnknown && len(out) < limit {
			c := *a
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *attemptRepo) Resolve(_ context.Context, id, state string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.ID == id {
			a.State = state
			a.ResolvedAt = &at
		}
	}
	return nil
}

func (r *attemptRepo) HasUnknownForInvoices(_ context.Context, ids []string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.State != entity.AttemptStateUnknown {
			continue
		}
		for _, x := range a.InvoiceIDs {
			for _, id := range ids {
				if x == id {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

func (r *attemptRepo) all() []*entity.ChargeAttempt {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.ChargeAttempt(nil), r.attempts...)
}

type eventRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (r *eventRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[id], nil
}

func (r *eventRepo) Record(_ context.Context, e *entity.GatewayEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = map[string]bool{}
	}
	if r.seen[e.EventID] {
		return false, nil
	}
	r.seen[e.EventID] = true
	return true, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Gateway en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeGateway struct {
	mu        sync.Mutex
	env       string
	customers map[string]*gateway.Customer // por documento
	payments  map[string]*gateway.Payment
	calls     []string
	seq       int

	createPaymentErr  error
	updatePaymentErr  error
	deletePaymentErr  error
	updateCustomerErr error

	// afterCreatePayment corre fuera del mutex, tras crear el cobro.
	afterCreatePayment func(p gateway.Payment)
	// beforeFindCustomer corre fuera del mutex; un ctx cancelado después del hook falla la llamada.
	beforeFindCustomer func(ctx context.Context)
	// beforeDeletePayment corre fuera del mutex, antes de eliminar.
	beforeDeletePayment func(id string)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		env:       entity.EnvironmentSandbox,
		customers: map[string]*gateway.Customer{},
		payments:  map[string]*gateway.Payment{},
	}
}

func (g *fakeGateway) record(call string) {
	g.calls = append(g.calls, call)
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) countOf(call string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (g *fakeGateway) ActiveEnvironment(context.Context) (string, error) { return g.env, nil }

func (g *fakeGateway) FindCustomerByDocument(ctx context.Context, doc string) (*gateway.Customer, error) {
	if g.beforeFindCustomer != nil {
		g.beforeFindCustomer(ctx)
		if err := ctx.Err(); err != nil {
			return nil, &domain.GatewayError{Op: "GET /customers", Transport: true, Err: err}
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("FindCustomer")
	c, ok := g.customers[doc]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (g *fakeGateway) CreateCustomer(_ context.Context, in gateway.Customer) (*gateway.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CreateCustomer")
	g.seq++
	in.ID = fmt.Sprintf("cus_%d", g.seq)
	g.customers[in.CpfCnpj] = &in
	cp := in
	return &cp, nil
}

func (g *fakeGateway) UpdateCustomer(ctx context.Context, id string, in gateway.Customer) (*gateway.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("UpdateCustomer")
	if err := ctx.Err(); err != nil {
		return nil, &domain.GatewayError{Op: "PUT /customers", Transport: true, Err: err}
	}
	if g.updateCustomerErr != nil {
		return nil, g.updateCustomerErr
	}
	in.ID = id
	g.customers[in.CpfCnpj] = &in
	cp := in
	return &cp, nil
}

func (g *fakeGateway) CreatePayment(_ context.Context, in gateway.NewPayment) (*gateway.Payment, error) {
	p, err := g.createPayment(in)
	if err == nil && g.afterCreatePayment != nil {
		g.afterCreatePayment(*p)
	}
	return p, err
}

func (g *fakeGateway) createPayment(in gateway.NewPayment) (*gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CreatePayment")
	if g.createPaymentErr != nil {
		return nil, g.createPaymentErr
	}
	g.seq++
	p := &gateway.Payment{
		ID:                fmt.Sprintf("pay_%d", g.seq),
		Customer:          in.Customer,
		BillingType:       gateway.BillingTypeBoleto,
		Status:            "PENDING",
		Value:             in.Value,
		DueDate:           in.DueDate,
		ExternalReference: in.ExternalReference,
		BankSlipURL:       fmt.Sprintf("https://boleto.test/pay_%d", g.seq),
	}
	g.payments[p.ID] = p
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) UpdatePayment(_ context.Context, id string, ch gateway.PaymentChanges) (*gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("UpdatePayment")
	if g.updatePaymentErr != nil {
		return nil, g.updatePaymentErr
	}
	p, ok := g.payments[id]
	if !ok {
		return nil, &domain.GatewayError{Op: "PUT /payments", Status: 404}
	}
	if ch.Value != nil {
		p.Value = *ch.Value
	}
	if ch.DueDate != "" {
		p.DueDate = ch.DueDate
	}
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) DeletePayment(_ context.Context, id string) error {
	if g.beforeDeletePayment != nil {
		g.beforeDeletePayment(id)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("DeletePayment")
	if g.deletePaymentErr != nil {
		return g.deletePaymentErr
	}
	if p, ok := g.payments[id]; ok {
		p.Deleted = true
		p.Status = "DELETED"
	}
	return nil
}

func (g *fakeGateway) GetPayment(_ context.Context, id string) (*gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("GetPayment")
	p, ok := g.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (g *fakeGateway) FindPaymentsByExternalReference(_ context.Context, ref string) ([]gateway.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("FindPayments")
	var out []gateway.Payment
	for _, p := range g.payments {
		if p.ExternalReference == ref {
			out = append(out, *p)
		}
	}
	return out, nil
}

// putPayment registra un cobro creado del lado del gateway (por ejemplo tras un timeout).
func (g *fakeGateway) putPayment(p gateway.Payment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = &p
}

func (g *fakeGateway) setStatus(id, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[id].Status = status
}

var _ billing.PaymentGateway = (*fakeGateway)(nil)

// fakeCommission registra los disparos de comisión.
type fakeCommission struct {
	mu          sync.Mutex
	activations []string
	paid        []string
}

func (f *fakeCommission) OnActivation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activations = append(f.activations, id)
	return nil
}

func (f *fakeCommission) OnInvoicePaid(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid = append(f.paid, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Harness
// ──────────────────────────────────────────────────────────────────────────────

const (
	testSubscriberID = "11111111-1111-1111-1111-111111111111"
	testDocument     = "52998224725"
)

type harness struct {
	store      *store
	gw         *fakeGateway
	ledger     *ledgerRepo
	attempts   *attemptRepo
	events     *eventRepo
	commission *fakeCommission
	queue      *sideeffect.Inline

	customers  *billing.CustomerSyncUseCase
	issuer     *billing.ChargeIssuerUseCase
	mutator    *billing.ChargeMutatorUseCase
	webhook    *billing.WebhookReconcilerUseCase
	reconcile  *billing.ReconcileUseCase
	subscriber *billing.SubscriberUseCase
	query      *billing.InvoiceQueryUseCase
}

func newHarness(strict bool) *harness {
	h := &harness{
		store:      newStore(),
		gw:         newFakeGateway(),
		ledger:     &ledgerRepo{},
		attempts:   &attemptRepo{},
		events:     &eventRepo{},
		commission: &fakeCommission{},
		queue:      &sideeffect.Inline{MaxAttempts: 1, Log: zerolog.Nop()},
	}
	log := zerolog.Nop()
	subs := subscriberRepo{h.store}
	invs := invoiceRepo{h.store}
	cons := consolidatedRepo{h.store}
	tx := txRunner{h.store}

	effects := billing.NewEffects(h.queue, subs, h.ledger, h.commission, nil, nil, log)
	applier := billing.NewStatusApplier(tx, effects, strict, log)

	h.customers = billing.NewCustomerSyncUseCase(subs, h.gw, log)
	h.issuer = billing.NewChargeIssuerUseCase(invs, subs, h.attempts, tx, h.customers, h.gw, lock.NewMemoryLocker(), effects, log)
	h.mutator = billing.NewChargeMutatorUseCase(invs, cons, tx, h.gw, effects, log)
	h.webhook = billing.NewWebhookReconcilerUseCase(invs, cons, h.events, applier, h.gw, log)
	h.reconcile = billing.NewReconcileUseCase(invs, cons, h.attempts, tx, h.gw, applier, effects,
		billing.ReconcileConfig{StaleAfter: 0, Concurrency: 2}, log)
	h.subscriber = billing.NewSubscriberUseCase(subs, h.customers, effects, log)
	h.query = billing.NewInvoiceQueryUseCase(invs)

	h.store.putSubscriber(&entity.Subscriber{
		ID:                 testSubscriberID,
		Name:               "João da Silva",
		Document:           testDocument,
		Phone:              "+55 11 99999-0000",
		BillingMode:        entity.BillingModeConsolidated,
		ConsolidatedDueDay: 10,
		Status:             entity.SubscriberStatusActivated,
	})
	return h
}

func (h *harness) addInvoice(id, amount string) {
	h.store.putInvoice(&entity.Invoice{
		ID:           id,
		SubscriberID: testSubscriberID,
		Period:       "2026-09",
		AmountDue:    decimal.RequireFromString(amount),
		DueDate:      time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC),
		Status:       entity.InvoiceStatusPending,
	})
}

func dueDate() *time.Time {
	d := time.Date(2026, 11, 10, 0, 0, 0, 0, time.UTC)
	return &d
}
