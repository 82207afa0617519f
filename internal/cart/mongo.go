package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// cartDocument is the persisted shape: one document per card.
type cartDocument struct {
	ID        string     `bson:"_id,omitempty"`
	CardID    string     `bson:"card_id"`
	Items     []LineItem `bson:"items"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// MongoStore implements Store on a MongoDB collection. Adds rely on
// atomic updates so concurrent increments for the same (card, product)
// are never lost.
type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

func (m *MongoStore) AddItem(ctx context.Context, item LineItem) error {
	now := time.Now()
	item.AddedAt = now

	// First try to increment an existing line for this (card, product).
	set := bson.M{"items.$.added_at": now, "updated_at": now}
	if item.MemberPrice {
		set["items.$.member_price"] = true
	}
	res, err := m.collection.UpdateOne(ctx,
		bson.M{"card_id": item.CardID, "items.product_id": item.ProductID},
		bson.M{
			"$inc": bson.M{"items.$.quantity": item.Quantity},
			"$set": set,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to increment cart item: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	// No existing line: push one, creating the cart document if needed.
	// The $ne filter keeps a concurrent first-add from pushing a second
	// line for the same product; when it races, fall through and the
	// caller's quantity lands via the increment path above.
	res, err = m.collection.UpdateOne(ctx,
		bson.M{"card_id": item.CardID, "items.product_id": bson.M{"$ne": item.ProductID}},
		bson.M{
			"$push":        bson.M{"items": item},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return m.AddItem(ctx, item)
	}
	return nil
}

func (m *MongoStore) Items(ctx context.Context, cardID string) ([]LineItem, error) {
	var doc cartDocument

	err := m.collection.FindOne(ctx, bson.M{"card_id": cardID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []LineItem{}, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return doc.Items, nil
}

func (m *MongoStore) Clear(ctx context.Context, cardID string) error {
	_, err := m.collection.DeleteOne(ctx, bson.M{"card_id": cardID})
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
