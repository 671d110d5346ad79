package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/models"
)

// Catalog regroupe les annuaires produit/boutique/client et la passerelle
// d'inventaire. Le stock vit sur le produit (ou la variante), comme en base.
type Catalog struct {
	mu        sync.RWMutex
	products  map[gocql.UUID]*models.Product
	variants  map[gocql.UUID]*models.ProductVariant
	shops     map[gocql.UUID]*models.Shop
	customers map[gocql.UUID]*models.Customer
	movements []models.StockMovement
}

func NewCatalog() *Catalog {
	return &Catalog{
		products:  make(map[gocql.UUID]*models.Product),
		variants:  make(map[gocql.UUID]*models.ProductVariant),
		shops:     make(map[gocql.UUID]*models.Shop),
		customers: make(map[gocql.UUID]*models.Customer),
	}
}

func (c *Catalog) PutProduct(p *models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	c.products[p.ID] = &cp
}

func (c *Catalog) PutVariant(v *models.ProductVariant) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cv := *v
	c.variants[v.ID] = &cv
}

func (c *Catalog) PutShop(s *models.Shop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cs := *s
	c.shops[s.ID] = &cs
}

func (c *Catalog) PutCustomer(cust *models.Customer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cc := *cust
	c.customers[cust.ID] = &cc
}

func (c *Catalog) GetProduct(_ context.Context, shopID, productID gocql.UUID) (*models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	product, ok := c.products[productID]
	if !ok || product.ShopID != shopID {
		return nil, commerce.ErrNotFound
	}
	cp := *product
	return &cp, nil
}

func (c *Catalog) GetVariant(_ context.Context, productID, variantID gocql.UUID) (*models.ProductVariant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	variant, ok := c.variants[variantID]
	if !ok || variant.ProductID != productID {
		return nil, commerce.ErrNotFound
	}
	cv := *variant
	return &cv, nil
}

func (c *Catalog) GetShop(_ context.Context, shopID gocql.UUID) (*models.Shop, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	shop, ok := c.shops[shopID]
	if !ok {
		return nil, commerce.ErrNotFound
	}
	cs := *shop
	return &cs, nil
}

func (c *Catalog) GetCustomer(_ context.Context, shopID, customerID gocql.UUID) (*models.Customer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	customer, ok := c.customers[customerID]
	if !ok || customer.ShopID != shopID {
		return nil, commerce.ErrNotFound
	}
	cc := *customer
	return &cc, nil
}

// stockRef retourne un pointeur vers le compteur de stock concerné
func (c *Catalog) stockRef(productID gocql.UUID, variantID *gocql.UUID) (*int, error) {
	if variantID != nil {
		variant, ok := c.variants[*variantID]
		if !ok {
			return nil, commerce.ErrNotFound
		}
		return &variant.Stock, nil
	}
	product, ok := c.products[productID]
	if !ok {
		return nil, commerce.ErrNotFound
	}
	return &product.Stock, nil
}

func (c *Catalog) CheckAvailable(_ context.Context, productID gocql.UUID, variantID *gocql.UUID) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ref, err := c.stockRef(productID, variantID)
	if err != nil {
		return 0, err
	}
	return *ref, nil
}

// Decrement est atomique : vérification et débit sous le même verrou, le
// stock ne passe jamais sous zéro.
func (c *Catalog) Decrement(_ context.Context, productID gocql.UUID, variantID *gocql.UUID, qty int, orderID gocql.UUID) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantité %d", commerce.ErrInvalidArgument, qty)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, err := c.stockRef(productID, variantID)
	if err != nil {
		return err
	}
	if *ref < qty {
		return commerce.ErrInsufficientStock
	}
	prev := *ref
	*ref -= qty
	c.recordMovement(productID, variantID, "sale", -qty, prev, *ref, orderID)
	return nil
}

func (c *Catalog) Increment(_ context.Context, productID gocql.UUID, variantID *gocql.UUID, qty int, orderID gocql.UUID) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantité %d", commerce.ErrInvalidArgument, qty)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, err := c.stockRef(productID, variantID)
	if err != nil {
		return err
	}
	prev := *ref
	*ref += qty
	c.recordMovement(productID, variantID, "return", qty, prev, *ref, orderID)
	return nil
}

func (c *Catalog) recordMovement(productID gocql.UUID, variantID *gocql.UUID, kind string, qty, prev, next int, orderID gocql.UUID) {
	oid := orderID
	c.movements = append(c.movements, models.StockMovement{
		ID:        gocql.TimeUUID(),
		ProductID: productID,
		VariantID: variantID,
		Type:      kind,
		Quantity:  qty,
		PrevStock: prev,
		NewStock:  next,
		OrderID:   &oid,
		CreatedAt: time.Now(),
	})
}

// Movements retourne une copie du journal des mouvements de stock.
func (c *Catalog) Movements() []models.StockMovement {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.StockMovement, len(c.movements))
	copy(out, c.movements)
	return out
}
