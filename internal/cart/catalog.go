package cart

import "errors"

var ErrProductNotFound = errors.New("product not found")

// Catalog maps product IDs to prices. Seeded with the museum shop's
// demo inventory; read-only after construction.
type Catalog struct {
	products map[int64]Product
}

func NewCatalog(products []Product) *Catalog {
	m := make(map[int64]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &Catalog{products: m}
}

// DefaultCatalog returns the museum shop's seed products.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Product{
		{ID: 1, Name: "General admission", Price: 20.00, MemberPrice: 16.00},
		{ID: 2, Name: "Guided dockyard tour", Price: 35.00, MemberPrice: 28.00},
		{ID: 3, Name: "Fleet review annual", Price: 45.00, MemberPrice: 36.00},
		{ID: 4, Name: "Ship model kit", Price: 60.00, MemberPrice: 48.00},
		{ID: 5, Name: "Signal flag set", Price: 25.00, MemberPrice: 20.00},
	})
}

func (c *Catalog) Product(id int64) (Product, error) {
	p, ok := c.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

// UnitPrice selects the member or regular price. The member flag is the
// logical OR of the line item's flag and the caller-supplied override.
func (c *Catalog) UnitPrice(item LineItem, isMember bool) (float64, error) {
	p, err := c.Product(item.ProductID)
	if err != nil {
		return 0, err
	}
	if item.MemberPrice || isMember {
		return p.MemberPrice, nil
	}
	return p.Price, nil
}
