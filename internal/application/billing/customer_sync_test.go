package billing_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jhoicas/Cobranca-api/internal/domain"
	"github.com/jhoicas/Cobranca-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCustomer_CreatesThenReuses(t *testing.T) {
	h := newHarness(true)
	ctx := context.Background()

	first, err := h.customers.ResolveCustomer(ctx, testSubscriberID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := h.customers.ResolveCustomer(ctx, testSubscriberID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, h.gw.countOf("CreateCustomer"))
	assert.Equal(t, 1, h.gw.countOf("UpdateCustomer"))

	sub, _ := subscriberRepo{h.store}.GetByID(ctx, testSubscriberID)
	assert.Equal(t, first, sub.GatewayCustomerID)
}

func TestResolveCustomer_FoldsAccentsInName(t *testing.T) {
	h := newHarness(true)
	_, err := h.customers.ResolveCustomer(context.Background(), testSubscriberID)
	require.NoError(t, err)
	assert.Equal(t, "Joao da Silva", h.gw.customers[testDocument].Name)
}

func TestResolveCustomer_UpdateFailureKeepsKnownID(t *testing.T) {
	h := newHarness(true)
	ctx := context.Background()
	id, err := h.customers.ResolveCustomer(ctx, testSubscriberID)
	require.NoError(t, err)

	h.gw.updateCustomerErr = &domain.GatewayError{Op: "PUT /customers", Status: 400, Description: "email inválido"}
	again, err := h.customers.ResolveCustomer(ctx, testSubscriberID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGateway))
	assert.Equal(t, id, again)
}

func TestResolveCustomer_EmptyDocumentIsValidationError(t *testing.T) {
	h := newHarness(true)
	h.store.putSubscriber(&entity.Subscriber{ID: "s2", Name: "Sem Documento"})

	_, err := h.customers.ResolveCustomer(context.Background(), "s2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	assert.Zero(t, h.gw.callCount())
}

func TestResolveCustomer_UnknownSubscriber(t *testing.T) {
	h := newHarness(true)
	_, err := h.customers.ResolveCustomer(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolve_JoinedCallerKeepsOwnProfileWhenLeaderIsCanceled(t *testing.T) {
	h := newHarness(true)
	sub, err := subscriberRepo{h.store}.GetByID(context.Background(), testSubscriberID)
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	var finds atomic.Int32
	h.gw.beforeFindCustomer = func(context.Context) {
		if finds.Add(1) == 1 {
			close(entered)
			<-release
		}
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stale := *sub
		_, _ = h.customers.Resolve(leaderCtx, &stale)
	}()
	<-entered

	var (
		joinedID  string
		joinedErr error
	)
	go func() {
		defer wg.Done()
		fresh := *sub
		fresh.Email = "novo@example.com"
		joinedID, joinedErr = h.customers.Resolve(context.Background(), &fresh)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(release)
	wg.Wait()

	require.NoError(t, joinedErr)
	assert.NotEmpty(t, joinedID)
	assert.Equal(t, 1, h.gw.countOf("CreateCustomer"))
	assert.Equal(t, "novo@example.com", h.gw.customers[testDocument].Email)
}
