package cart

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrCardIDRequired = errors.New("card id required")
var ErrInvalidItem = errors.New("product id and quantity must be positive")

type Service struct {
	store   Store
	cache   Cache
	catalog *Catalog
	sfg     singleflight.Group // collapses concurrent reads per card
}

func NewService(store Store, cache Cache, catalog *Catalog) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		catalog: catalog,
	}
}

func (s *Service) AddItem(ctx context.Context, item LineItem) error {
	if item.CardID == "" {
		return ErrCardIDRequired
	}
	if item.ProductID <= 0 || item.Quantity <= 0 {
		return ErrInvalidItem
	}
	if _, err := s.catalog.Product(item.ProductID); err != nil {
		return err
	}

	if err := s.store.AddItem(ctx, item); err != nil {
		log.Printf("store add item error: %v", err)
		return err
	}

	s.invalidate(item.CardID)
	return nil
}

// Items reads through the cache; concurrent misses for the same card are
// collapsed into a single store read.
func (s *Service) Items(ctx context.Context, cardID string) ([]LineItem, error) {
	v, err, _ := s.sfg.Do(cardID, func() (interface{}, error) {
		items, err := s.cache.Get(ctx, cardID)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // degraded, keep serving from store
		}

		items, err = s.store.Items(ctx, cardID)
		if err != nil {
			return nil, err
		}

		go func() {
			cacheCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := s.cache.Set(cacheCtx, cardID, items); err != nil {
				log.Printf("cache set error: %v", err)
			}
		}()

		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]LineItem), nil
}

// Total sums the card's line items. The member flag is ORed with each
// item's own member-price flag when selecting the unit price.
func (s *Service) Total(ctx context.Context, cardID string, isMember bool) (*Summary, error) {
	if cardID == "" {
		return nil, ErrCardIDRequired
	}

	items, err := s.Items(ctx, cardID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{CardID: cardID, Items: items}
	for _, item := range items {
		unit, err := s.catalog.UnitPrice(item, isMember)
		if err != nil {
			return nil, err
		}
		summary.Total += unit * float64(item.Quantity)
		summary.ItemCount += item.Quantity
	}
	return summary, nil
}

func (s *Service) Clear(ctx context.Context, cardID string) error {
	if cardID == "" {
		return ErrCardIDRequired
	}

	if err := s.store.Clear(ctx, cardID); err != nil {
		log.Printf("store clear error: %v", err)
		return err
	}

	s.invalidate(cardID)
	return nil
}

func (s *Service) invalidate(cardID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, cardID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
