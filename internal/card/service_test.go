package card

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPaymentClient struct {
	mu       sync.Mutex
	approved bool
	err      error
	calls    int
}

func (m *mockPaymentClient) Simulate(_ context.Context, req SimulateRequest) (*SimulateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &SimulateResult{
		Approved:      m.approved,
		TransactionID: "AB12CD34",
		Amount:        req.Amount,
		Currency:      req.Currency,
	}, nil
}

func (m *mockPaymentClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var cardIDPattern = regexp.MustCompile(`^NAV-[0-9A-F]{8}$`)

func TestIssue_GeneratesCardID(t *testing.T) {
	sut := NewService(NewMemoryStore(), &mockPaymentClient{})

	c, err := sut.Issue(context.Background(), "Alice", "")
	require.NoError(t, err)

	assert.Regexp(t, cardIDPattern, c.CardID)
	assert.Equal(t, DefaultTier, c.Tier)
	assert.WithinDuration(t, time.Now().UTC().Add(ValidityPeriod), c.ExpiresAt, time.Minute)
}

func TestIssue_NameRequired(t *testing.T) {
	sut := NewService(NewMemoryStore(), &mockPaymentClient{})

	_, err := sut.Issue(context.Background(), "   ", "Gold")
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestIssue_KeepsExplicitTier(t *testing.T) {
	sut := NewService(NewMemoryStore(), &mockPaymentClient{})

	c, err := sut.Issue(context.Background(), "Alice", "Gold")
	require.NoError(t, err)
	assert.Equal(t, "Gold", c.Tier)
}

func TestGet_UnknownCard(t *testing.T) {
	sut := NewService(NewMemoryStore(), &mockPaymentClient{})

	_, err := sut.Get(context.Background(), "NAV-DEADBEEF")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestValidateWithName(t *testing.T) {
	store := NewMemoryStore()
	sut := NewService(store, &mockPaymentClient{})

	valid, err := sut.Issue(context.Background(), "Alice Smith", "")
	require.NoError(t, err)

	expired := &Card{
		CardID:    "NAV-EXPIRED1",
		Name:      "Bob Jones",
		Tier:      DefaultTier,
		ExpiresAt: time.Now().UTC().Add(-24 * time.Hour),
		CreatedAt: time.Now().UTC().Add(-2 * ValidityPeriod),
	}
	require.NoError(t, store.Insert(context.Background(), expired))

	tests := []struct {
		name       string
		cardID     string
		holder     string
		valid      bool
		nameMatch  bool
		notExpired bool
		message    string
	}{
		{"exact match", valid.CardID, "Alice Smith", true, true, true, "Card valid"},
		{"case insensitive", valid.CardID, "alice smith", true, true, true, "Card valid"},
		{"trimmed", valid.CardID, "  Alice Smith  ", true, true, true, "Card valid"},
		{"wrong name", valid.CardID, "Mallory", false, false, true, "Name does not match card holder"},
		{"expired card", expired.CardID, "Bob Jones", false, true, false, "Card expired"},
		{"mismatch beats expiry", expired.CardID, "Mallory", false, false, false, "Name does not match card holder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := sut.ValidateWithName(context.Background(), tt.cardID, tt.holder)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.nameMatch, res.NameMatch)
			assert.Equal(t, tt.notExpired, res.NotExpired)
			assert.Equal(t, tt.message, res.Message)
		})
	}
}

func TestValidateWithName_UnknownCard(t *testing.T) {
	sut := NewService(NewMemoryStore(), &mockPaymentClient{})

	_, err := sut.ValidateWithName(context.Background(), "NAV-DEADBEEF", "Alice")
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestValidateAndPay_Approved(t *testing.T) {
	store := NewMemoryStore()
	payments := &mockPaymentClient{approved: true}
	sut := NewService(store, payments)

	c, err := sut.Issue(context.Background(), "Alice", "")
	require.NoError(t, err)

	res, err := sut.ValidateAndPay(context.Background(), c.CardID, SimulateRequest{
		Amount:   42,
		Currency: "USD",
	})
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.Equal(t, "Payment approved", res.Message)
	assert.Equal(t, "AB12CD34", res.TransactionID)
	assert.Equal(t, 42.0, res.Amount)
}

func TestValidateAndPay_Declined(t *testing.T) {
	store := NewMemoryStore()
	sut := NewService(store, &mockPaymentClient{approved: false})

	c, err := sut.Issue(context.Background(), "Alice", "")
	require.NoError(t, err)

	res, err := sut.ValidateAndPay(context.Background(), c.CardID, SimulateRequest{Amount: 42})
	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, "Payment declined", res.Message)
}

func TestValidateAndPay_ExpiredCardSkipsPayment(t *testing.T) {
	store := NewMemoryStore()
	payments := &mockPaymentClient{approved: true}
	sut := NewService(store, payments)

	expired := &Card{
		CardID:    "NAV-EXPIRED1",
		Name:      "Bob",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, store.Insert(context.Background(), expired))

	res, err := sut.ValidateAndPay(context.Background(), expired.CardID, SimulateRequest{Amount: 42})
	require.NoError(t, err)
	assert.False(t, res.Approved)
	assert.Equal(t, "Card expired", res.Message)
	assert.Equal(t, 0, payments.callCount(), "expired card must never reach the processor")
}

func TestValidateAndPay_ProcessorErrorPropagates(t *testing.T) {
	store := NewMemoryStore()
	sut := NewService(store, &mockPaymentClient{err: errors.New("connection refused")})

	c, err := sut.Issue(context.Background(), "Alice", "")
	require.NoError(t, err)

	_, err = sut.ValidateAndPay(context.Background(), c.CardID, SimulateRequest{Amount: 42})
	assert.Error(t, err)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	orig := &Card{CardID: "NAV-AAAA1111", Name: "Alice", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Insert(context.Background(), orig))

	got, err := store.Get(context.Background(), "NAV-AAAA1111")
	require.NoError(t, err)

	got.Name = "tampered"

	again, err := store.Get(context.Background(), "NAV-AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Name)
}
