package card

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrNameRequired = errors.New("name required")

// PaymentClient is the slice of the payment processor the issuer needs
// for combined validate-and-pay.
type PaymentClient interface {
	Simulate(ctx context.Context, req SimulateRequest) (*SimulateResult, error)
}

type SimulateRequest struct {
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	CardID      string  `json:"cardId,omitempty"`
}

type SimulateResult struct {
	Approved      bool    `json:"approved"`
	TransactionID string  `json:"transactionId"`
	Message       string  `json:"message"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
}

type ValidationResult struct {
	Valid      bool   `json:"valid"`
	NameMatch  bool   `json:"nameMatch"`
	NotExpired bool   `json:"notExpired"`
	Message    string `json:"message"`
}

type PayResult struct {
	Approved      bool    `json:"approved"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        float64 `json:"amount"`
	Message       string  `json:"message"`
}

type Service struct {
	store    Store
	payments PaymentClient
}

func NewService(store Store, payments PaymentClient) *Service {
	return &Service{
		store:    store,
		payments: payments,
	}
}

// Issue creates a new membership card valid for one year.
func (s *Service) Issue(ctx context.Context, name, tier string) (*Card, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if tier == "" {
		tier = DefaultTier
	}

	now := timeNow()
	c := &Card{
		CardID:    "NAV-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8]),
		Name:      name,
		Tier:      tier,
		ExpiresAt: now.Add(ValidityPeriod),
		CreatedAt: now,
	}

	if err := s.store.Insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the stored card, ErrCardNotFound when unknown.
func (s *Service) Get(ctx context.Context, cardID string) (*Card, error) {
	return s.store.Get(ctx, strings.TrimSpace(cardID))
}

// ValidateWithName checks expiry and holder name in one call. The name
// comparison is a trimmed, case-insensitive exact match. A name mismatch
// takes precedence over expiry in the reported message.
func (s *Service) ValidateWithName(ctx context.Context, cardID, name string) (*ValidationResult, error) {
	c, err := s.store.Get(ctx, strings.TrimSpace(cardID))
	if err != nil {
		return nil, err
	}

	nameMatch := strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name))
	notExpired := !c.Expired(timeNow())

	res := &ValidationResult{
		Valid:      nameMatch && notExpired,
		NameMatch:  nameMatch,
		NotExpired: notExpired,
	}
	switch {
	case !nameMatch:
		res.Message = "Name does not match card holder"
	case !notExpired:
		res.Message = "Card expired"
	default:
		res.Message = "Card valid"
	}
	return res, nil
}

// ValidateAndPay validates the card (existence and expiry) and, when valid,
// forwards the charge to the payment processor.
func (s *Service) ValidateAndPay(ctx context.Context, cardID string, req SimulateRequest) (*PayResult, error) {
	c, err := s.store.Get(ctx, strings.TrimSpace(cardID))
	if err != nil {
		return nil, err
	}
	if c.Expired(timeNow()) {
		return &PayResult{
			Approved: false,
			Amount:   req.Amount,
			Message:  "Card expired",
		}, nil
	}

	req.CardID = c.CardID
	pay, err := s.payments.Simulate(ctx, req)
	if err != nil {
		return nil, err
	}

	msg := "Payment declined"
	if pay.Approved {
		msg = "Payment approved"
	}
	return &PayResult{
		Approved:      pay.Approved,
		TransactionID: pay.TransactionID,
		Amount:        req.Amount,
		Message:       msg,
	}, nil
}
