package checkout

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/navalarchive/services/internal/checkout/idempotency"
)

var (
	ErrMissingFields      = errors.New("card id and name required")
	ErrNoAmount           = errors.New("no cart total and no amount provided")
	ErrPaymentUnavailable = errors.New("payment service unavailable")
)

const (
	DefaultIdempotencyTTL = 10 * time.Minute
	DefaultDescription    = "Museum checkout"
)

// CardValidation is the issuer's combined name+card verdict.
type CardValidation struct {
	Valid      bool   `json:"valid"`
	NameMatch  bool   `json:"nameMatch"`
	NotExpired bool   `json:"notExpired"`
	Message    string `json:"message"`
}

// CardClient validates membership credentials.
type CardClient interface {
	ValidateWithName(ctx context.Context, cardID, name string) (*CardValidation, error)
}

type CartTotal struct {
	Total     float64 `json:"total"`
	ItemCount int     `json:"itemCount"`
}

// CartClient reads and clears a card's cart.
type CartClient interface {
	Total(ctx context.Context, cardID string, isMember bool) (*CartTotal, error)
	Clear(ctx context.Context, cardID string) error
}

type PaymentOutcome struct {
	Approved      bool   `json:"approved"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// PaymentClient charges an amount against the simulated processor.
type PaymentClient interface {
	Simulate(ctx context.Context, amount float64, currency, description, cardID string) (*PaymentOutcome, error)
}

type PayRequest struct {
	CardID         string  `json:"cardId"`
	Name           string  `json:"name"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	Description    string  `json:"description"`
	IdempotencyKey string  `json:"idempotencyKey"`
}

type PayResult struct {
	Approved      bool    `json:"approved"`
	TransactionID string  `json:"transactionId,omitempty"`
	Amount        float64 `json:"amount"`
	Message       string  `json:"message"`
}

type Service struct {
	cards    CardClient
	carts    CartClient
	payments PaymentClient
	idem     *idempotency.Cache[PayResult]
	idemTTL  time.Duration
}

func NewService(cards CardClient, carts CartClient, payments PaymentClient, idemTTL time.Duration) *Service {
	if idemTTL <= 0 {
		idemTTL = DefaultIdempotencyTTL
	}
	return &Service{
		cards:    cards,
		carts:    carts,
		payments: payments,
		idem:     idempotency.New[PayResult](),
		idemTTL:  idemTTL,
	}
}

// Pay runs the checkout pipeline: duplicate suppression, card+name
// validation, amount resolution, payment, then best-effort cart clearing.
// The first failing step aborts the chain.
func (s *Service) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	if strings.TrimSpace(req.CardID) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrMissingFields
	}
	cardID := strings.TrimSpace(req.CardID)

	// The cache is consulted before validation on purpose: a duplicate
	// submission must never re-charge, even if the card has since
	// expired or been invalidated.
	if req.IdempotencyKey != "" {
		if cached, ok := s.idem.Get(req.IdempotencyKey); ok {
			log.Printf("duplicate checkout suppressed, idempotency_key=%s transaction=%s",
				req.IdempotencyKey, cached.TransactionID)
			return &cached, nil
		}
	}

	validation, err := s.cards.ValidateWithName(ctx, cardID, req.Name)
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		message := validation.Message
		if message == "" {
			message = "Card validation failed"
		}
		return &PayResult{Approved: false, Message: message}, nil
	}

	amount := req.Amount
	if amount <= 0 {
		total, err := s.carts.Total(ctx, cardID, true)
		if err != nil {
			log.Printf("cart total lookup failed for %s: %v", cardID, err)
		} else {
			amount = total.Total
		}
	}
	if amount <= 0 {
		return nil, ErrNoAmount
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}
	description := req.Description
	if description == "" {
		description = DefaultDescription
	}

	outcome, err := s.payments.Simulate(ctx, amount, currency, description, cardID)
	if err != nil {
		log.Printf("payment call failed: %v", err)
		return nil, ErrPaymentUnavailable
	}

	result := &PayResult{
		Approved:      outcome.Approved,
		TransactionID: outcome.TransactionID,
		Amount:        amount,
		Message:       "Payment declined",
	}
	if outcome.Approved {
		result.Message = "Payment approved"

		// Best effort: a failed clear must not fail the checkout. A
		// declined payment keeps the cart so the visitor can retry.
		go func() {
			clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.carts.Clear(clearCtx, cardID); err != nil {
				log.Printf("cart clear after approval failed for %s: %v", cardID, err)
			}
		}()

		if req.IdempotencyKey != "" {
			s.idem.Put(req.IdempotencyKey, *result, s.idemTTL)
		}
	}

	return result, nil
}
