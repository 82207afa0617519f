package card

import "time"

// Card is a membership credential. Immutable once issued.
type Card struct {
	CardID    string    `json:"cardId" bson:"card_id"`
	Name      string    `json:"name" bson:"name"`
	Tier      string    `json:"tier" bson:"tier"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expires_at"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

const DefaultTier = "Standard"

// ValidityPeriod is how long an issued card stays valid.
const ValidityPeriod = 365 * 24 * time.Hour

func (c *Card) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

func timeNow() time.Time {
	return time.Now().UTC()
}
