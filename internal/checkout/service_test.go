package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navalarchive/services/internal/httpx"
)

type mockCardClient struct {
	mu         sync.Mutex
	validation *CardValidation
	err        error
	calls      int
}

func (m *mockCardClient) ValidateWithName(context.Context, string, string) (*CardValidation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.validation, nil
}

func (m *mockCardClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockCartClient struct {
	mu       sync.Mutex
	total    *CartTotal
	totalErr error
	cleared  []string
	clearErr error
}

func (m *mockCartClient) Total(context.Context, string, bool) (*CartTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.totalErr != nil {
		return nil, m.totalErr
	}
	return m.total, nil
}

func (m *mockCartClient) Clear(_ context.Context, cardID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, cardID)
	return m.clearErr
}

func (m *mockCartClient) clearedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cleared)
}

type mockPaymentClient struct {
	mu      sync.Mutex
	outcome *PaymentOutcome
	err     error
	calls   int
}

func (m *mockPaymentClient) Simulate(context.Context, float64, string, string, string) (*PaymentOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func (m *mockPaymentClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func validCard() *mockCardClient {
	return &mockCardClient{validation: &CardValidation{
		Valid: true, NameMatch: true, NotExpired: true, Message: "Card valid",
	}}
}

func approving() *mockPaymentClient {
	return &mockPaymentClient{outcome: &PaymentOutcome{Approved: true, TransactionID: "TXN12345"}}
}

func TestPay_MissingFields(t *testing.T) {
	sut := NewService(validCard(), &mockCartClient{}, approving(), 0)

	_, err := sut.Pay(context.Background(), PayRequest{CardID: "", Name: "Alice"})
	require.ErrorIs(t, err, ErrMissingFields)

	_, err = sut.Pay(context.Background(), PayRequest{CardID: "NAV-1", Name: "   "})
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestPay_ExplicitAmountIgnoresCartTotal(t *testing.T) {
	carts := &mockCartClient{total: &CartTotal{Total: 40, ItemCount: 2}}
	payments := approving()
	sut := NewService(validCard(), carts, payments, 0)

	res, err := sut.Pay(context.Background(), PayRequest{
		CardID: "NAV-1", Name: "Alice", Amount: 25.00,
	})
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.Equal(t, 25.00, res.Amount)
	assert.Equal(t, 1, payments.callCount())
}

func TestPay_AmountFromCartTotal(t *testing.T) {
	carts := &mockCartClient{total: &CartTotal{Total: 32.00, ItemCount: 2}}
	sut := NewService(validCard(), carts, approving(), 0)

	res, err := sut.Pay(context.Background(), PayRequest{CardID: "NAV-1", Name: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, 32.00, res.Amount)
}

func TestPay_NoAmountAndEmptyCart(t *testing.T) {
	carts := &mockCartClient{total: &CartTotal{Total: 0, ItemCount: 0}}
	payments := approving()
	sut := NewService(validCard(), carts, payments, 0)

	_, err := sut.Pay(context.Background(), PayRequest{CardID: "NAV-1", Name: "Alice"})
	require.ErrorIs(t, err, ErrNoAmount)
	assert.Equal(t, 0, payments.callCount())
}

func TestPay_CartTotalLookupFailureBecomesNoAmount(t *testing.T) {
	carts := &mockCartClient{totalErr: fmt.Errorf("connection refused")}
	sut := NewService(validCard(), carts, approving(), 0)

	_, err := sut.Pay(context.Background(), PayRequest{CardID: "NAV-1", Name: "Alice"})
	require.ErrorIs(t, err, ErrNoAmount)
}

func TestPay_InvalidCardIsADomainDecline(t *testing.T) {
	cards := &mockCardClient{validation: &CardValidation{
		Valid: false, NameMatch: false, NotExpired: true, Message: "Name does not match card holder",
	}}
	payments := approving()
	sut := NewService(cards, &mockCartClient{}, payments, 0)

	res, err := sut.Pay(context.Background(), PayRequest{CardID: "NAV-1", Name: "Mallory", Amount: 10})
	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, "Name does not match card holder", res.Message)
	assert.Equal(t, 0, payments.callCount(), "no payment call may happen for an invalid card")
}

func TestPay_UpstreamErrorFromIssuerPropagates(t *testing.T) {
	cards := &mockCardClient{err: &httpx.UpstreamError{
		Service: "card-service", StatusCode: 404, Body: `{"valid":false,"message":"Card not found"}`,
	}}
	sut := NewService(cards, &mockCartClient{}, approving(), 0)

	_, err := sut.Pay(context.Background(), PayRequest{CardID: "NAV-404", Name: "Alice", Amount: 10})
	var ue *httpx.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 404, ue.StatusCode)
}

func TestPay_PaymentTransportFailure(t *testing.T) {
	payments := &mockPaymentClient{err: fmt.Errorf("connection refused")}
	sut := NewService(validCard(), &mockCartClient{}, payments, 0)

	_, err := sut.Pay(context.Background(), PayRequest{CardID: "NAV-1", Name: "Alice", Amount: 10})
	require.ErrorIs(t, err, ErrPaymentUnavailable)
}

func TestPay_ApprovalClearsCart(t *testing.T) {
	carts := &mockCartClient{}
	sut := NewService(validCard(), carts, approving(), 0)

	res, err := sut.Pay(context.Background(), PayRequest{CardID: "NAV-1", Name: "Alice", Amount: 10})
	require.NoError(t, err)
	require.True(t, res.Approved)

	require.Eventually(t, func() bool {
		return carts.clearedCount() == 1
	}, 100*time.Millisecond, 10*time.Millisecond, "cart was not cleared after approval")
}

func TestPay_DeclineKeepsCart(t *testing.T) {
	carts := &mockCartClient{}
	payments := &mockPaymentClient{outcome: &PaymentOutcome{Approved: false, TransactionID: "TXN99"}}
	sut := NewService(validCard(), carts, payments, 0)

	res, err := sut.Pay(context.Background(), PayRequest{CardID: "NAV-1", Name: "Alice", Amount: 10})
	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, "Payment declined", res.Message)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, carts.clearedCount(), "declined payment must retain the cart")
}

func TestPay_IdempotentDuplicateSuppressed(t *testing.T) {
	payments := approving()
	sut := NewService(validCard(), &mockCartClient{}, payments, time.Minute)

	req := PayRequest{CardID: "NAV-1", Name: "Alice", Amount: 10, IdempotencyKey: "order-42"}

	first, err := sut.Pay(context.Background(), req)
	require.NoError(t, err)
	require.True(t, first.Approved)

	second, err := sut.Pay(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, *first, *second, "duplicate must receive the identical result")
	assert.Equal(t, 1, payments.callCount(), "at most one charge per live idempotency key")
}

func TestPay_CachedHitSkipsRevalidation(t *testing.T) {
	cards := validCard()
	sut := NewService(cards, &mockCartClient{}, approving(), time.Minute)

	req := PayRequest{CardID: "NAV-1", Name: "Alice", Amount: 10, IdempotencyKey: "order-7"}
	_, err := sut.Pay(context.Background(), req)
	require.NoError(t, err)

	// Card becomes invalid afterwards; the cached result still wins.
	cards.mu.Lock()
	cards.validation = &CardValidation{Valid: false, Message: "Card expired"}
	cards.mu.Unlock()

	res, err := sut.Pay(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.Equal(t, 1, cards.callCount(), "cached hit must not re-validate")
}

func TestPay_IdempotencyEntryExpires(t *testing.T) {
	payments := approving()
	sut := NewService(validCard(), &mockCartClient{}, payments, 20*time.Millisecond)

	req := PayRequest{CardID: "NAV-1", Name: "Alice", Amount: 10, IdempotencyKey: "order-13"}

	_, err := sut.Pay(context.Background(), req)
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = sut.Pay(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, payments.callCount(), "expired key must trigger a fresh payment attempt")
}

func TestPay_DeclineIsNotCached(t *testing.T) {
	payments := &mockPaymentClient{outcome: &PaymentOutcome{Approved: false}}
	sut := NewService(validCard(), &mockCartClient{}, payments, time.Minute)

	req := PayRequest{CardID: "NAV-1", Name: "Alice", Amount: 10, IdempotencyKey: "order-9"}

	_, err := sut.Pay(context.Background(), req)
	require.NoError(t, err)
	_, err = sut.Pay(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, payments.callCount(), "declines are not cached, retry reaches the processor")
}
