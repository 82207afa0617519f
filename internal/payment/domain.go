package payment

import "time"

// Transaction is the immutable audit record written once per payment
// attempt, approved or not.
type Transaction struct {
	TransactionID string    `json:"transactionId"`
	CardID        string    `json:"cardId,omitempty"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	Description   string    `json:"description"`
	Approved      bool      `json:"approved"`
	CreatedAt     time.Time `json:"createdAt"`
}

const DefaultCurrency = "USD"
