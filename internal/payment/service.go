package payment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Decider is the approval decision seam. The production implementation
// draws at random; tests substitute a fixed outcome.
type Decider interface {
	Approve() bool
}

// RandomDecider approves with the configured percentage, independent of
// amount and card.
type RandomDecider struct {
	Percent int
}

func (d RandomDecider) Approve() bool {
	return rand.Intn(100) < d.Percent
}

type SimulateRequest struct {
	Amount      float64
	Currency    string
	Description string
	CardID      string
}

type SimulateResult struct {
	Approved      bool    `json:"approved"`
	TransactionID string  `json:"transactionId"`
	Message       string  `json:"message"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

type Service struct {
	store   Store
	decider Decider
}

func NewService(store Store, decider Decider) *Service {
	return &Service{
		store:   store,
		decider: decider,
	}
}

// Simulate draws an approval decision and records one transaction row
// regardless of the outcome.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Currency == "" {
		req.Currency = DefaultCurrency
	}

	approved := s.decider.Approve()
	transactionID := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	tx := &Transaction{
		TransactionID: transactionID,
		CardID:        req.CardID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Description:   req.Description,
		Approved:      approved,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Record(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to record transaction %s: %w", transactionID, err)
	}

	message := "Payment declined (simulation)"
	if approved {
		message = "Payment approved"
	}
	return &SimulateResult{
		Approved:      approved,
		TransactionID: transactionID,
		Message:       message,
		Amount:        req.Amount,
		Currency:      req.Currency,
	}, nil
}
