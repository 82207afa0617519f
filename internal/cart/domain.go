package cart

import "time"

// LineItem is one product entry in a card's cart. Keyed by
// (card, product); repeated adds for the same pair increment Quantity.
type LineItem struct {
	CardID      string    `json:"cardId" bson:"card_id"`
	ProductID   int64     `json:"productId" bson:"product_id"`
	Quantity    int       `json:"quantity" bson:"quantity"`
	MemberPrice bool      `json:"memberPrice" bson:"member_price"`
	AddedAt     time.Time `json:"addedAt" bson:"added_at"`
}

// Product is a catalog entry with regular and member unit prices.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	MemberPrice float64 `json:"memberPrice"`
}

// Summary is the computed view of a cart returned to callers.
type Summary struct {
	CardID    string     `json:"cardId"`
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	ItemCount int        `json:"itemCount"`
}
