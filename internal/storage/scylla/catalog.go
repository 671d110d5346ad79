package scylla

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gocql/gocql"

	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/database"
	"shopora_back_end/internal/models"
)

// Catalog expose les annuaires produits/boutiques/clients et la passerelle
// de stock par-dessus les keyspaces products et users.
type Catalog struct{}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// =============================================
// ANNUAIRE PRODUITS
// =============================================

func (c *Catalog) GetProduct(ctx context.Context, shopID, productID gocql.UUID) (*models.Product, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	var p models.Product
	err = session.Query(
		`SELECT product_id, shop_id, name, description, slug, price, original_price,
			manage_stock, stock, low_stock_threshold, sku, weight, requires_shipping,
			category_id, image_urls, tags, is_active, has_variants, created_at, updated_at
		 FROM products WHERE product_id = ?`,
		productID,
	).WithContext(ctx).Scan(
		&p.ID, &p.ShopID, &p.Name, &p.Description, &p.Slug, &p.Price, &p.OriginalPrice,
		&p.ManageStock, &p.Stock, &p.LowStockThreshold, &p.SKU, &p.Weight, &p.RequiresShipping,
		&p.CategoryID, &p.ImageURLs, &p.Tags, &p.IsActive, &p.HasVariants, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// Un produit d'une autre boutique est invisible
	if p.ShopID != shopID {
		return nil, commerce.ErrNotFound
	}
	return &p, nil
}

func (c *Catalog) GetVariant(ctx context.Context, productID, variantID gocql.UUID) (*models.ProductVariant, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return nil, err
	}

	var v models.ProductVariant
	err = session.Query(
		`SELECT variant_id, product_id, name, sku, price, original_price, stock, weight,
			attributes, is_active, created_at, updated_at
		 FROM product_variants WHERE product_id = ? AND variant_id = ?`,
		productID, variantID,
	).WithContext(ctx).Scan(
		&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Price, &v.OriginalPrice, &v.Stock, &v.Weight,
		&v.Attributes, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// =============================================
// ANNUAIRE BOUTIQUES & CLIENTS (keyspace users)
// =============================================

func (c *Catalog) GetShop(ctx context.Context, shopID gocql.UUID) (*models.Shop, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	var (
		s            models.Shop
		settingsJSON string
	)
	err = session.Query(
		`SELECT shop_id, name, currency, is_active, settings_json, created_at, updated_at
		 FROM shops WHERE shop_id = ?`,
		shopID,
	).WithContext(ctx).Scan(
		&s.ID, &s.Name, &s.Currency, &s.IsActive, &settingsJSON, &s.CreatedAt, &s.UpdatedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if settingsJSON != "" {
		if err := json.Unmarshal([]byte(settingsJSON), &s.Settings); err != nil {
			log.Printf("⚠️ settings_json illisible pour la boutique %s: %v", shopID, err)
		}
	}
	return &s, nil
}

func (c *Catalog) GetCustomer(ctx context.Context, shopID, customerID gocql.UUID) (*models.Customer, error) {
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	var (
		cu          models.Customer
		addressJSON string
	)
	err = session.Query(
		`SELECT customer_id, shop_id, email, full_name, phone, default_address_json,
			is_active, created_at, updated_at
		 FROM customers WHERE customer_id = ?`,
		customerID,
	).WithContext(ctx).Scan(
		&cu.ID, &cu.ShopID, &cu.Email, &cu.FullName, &cu.Phone, &addressJSON,
		&cu.IsActive, &cu.CreatedAt, &cu.UpdatedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, commerce.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cu.ShopID != shopID {
		return nil, commerce.ErrNotFound
	}
	if addressJSON != "" {
		if err := json.Unmarshal([]byte(addressJSON), &cu.DefaultAddress); err != nil {
			log.Printf("⚠️ default_address_json illisible pour le client %s: %v", customerID, err)
		}
	}
	return &cu, nil
}

// =============================================
// PASSERELLE DE STOCK (compare-and-set LWT)
// =============================================

// Nombre de tentatives CAS avant d'abandonner avec ErrConflict.
const stockCASRetries = 5

func (c *Catalog) CheckAvailable(ctx context.Context, productID gocql.UUID, variantID *gocql.UUID) (int, error) {
	session, err := database.GetProductsSession()
	if err != nil {
		return 0, err
	}
	return c.readStock(ctx, session, productID, variantID)
}

func (c *Catalog) readStock(ctx context.Context, session *gocql.Session, productID gocql.UUID, variantID *gocql.UUID) (int, error) {
	var stock int
	if variantID != nil {
		err := session.Query(
			`SELECT stock FROM product_variants WHERE product_id = ? AND variant_id = ?`,
			productID, *variantID,
		).WithContext(ctx).Scan(&stock)
		if err == gocql.ErrNotFound {
			return 0, commerce.ErrNotFound
		}
		return stock, err
	}
	err := session.Query(
		`SELECT stock FROM products WHERE product_id = ?`,
		productID,
	).WithContext(ctx).Scan(&stock)
	if err == gocql.ErrNotFound {
		return 0, commerce.ErrNotFound
	}
	return stock, err
}

// casStock tente de remplacer le stock observé par la nouvelle valeur.
// Retourne false si un autre writer est passé entre la lecture et l'écriture.
func (c *Catalog) casStock(ctx context.Context, session *gocql.Session, productID gocql.UUID, variantID *gocql.UUID, observed, next int) (bool, error) {
	if variantID != nil {
		return session.Query(
			`UPDATE product_variants SET stock = ? WHERE product_id = ? AND variant_id = ? IF stock = ?`,
			next, productID, *variantID, observed,
		).WithContext(ctx).ScanCAS()
	}
	return session.Query(
		`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
		next, productID, observed,
	).WithContext(ctx).ScanCAS()
}

// Decrement débite le stock de façon atomique. Le stock ne passe jamais
// sous zéro : si le disponible est insuffisant, ErrInsufficientStock.
func (c *Catalog) Decrement(ctx context.Context, productID gocql.UUID, variantID *gocql.UUID, qty int, orderID gocql.UUID) error {
	if qty <= 0 {
		return commerce.ErrInvalidArgument
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < stockCASRetries; attempt++ {
		stock, err := c.readStock(ctx, session, productID, variantID)
		if err != nil {
			return err
		}
		if stock < qty {
			return commerce.ErrInsufficientStock
		}

		applied, err := c.casStock(ctx, session, productID, variantID, stock, stock-qty)
		if err != nil {
			return err
		}
		if applied {
			c.recordMovement(ctx, productID, variantID, "sale", -qty, stock, stock-qty, orderID)
			return nil
		}
		// Écriture concurrente : relire et retenter
	}
	return commerce.ErrConflict
}

// Increment recrédite le stock (annulation, retour).
func (c *Catalog) Increment(ctx context.Context, productID gocql.UUID, variantID *gocql.UUID, qty int, orderID gocql.UUID) error {
	if qty <= 0 {
		return commerce.ErrInvalidArgument
	}

	session, err := database.GetProductsSession()
	if err != nil {
		return err
	}

	for attempt := 0; attempt < stockCASRetries; attempt++ {
		stock, err := c.readStock(ctx, session, productID, variantID)
		if err != nil {
			return err
		}

		applied, err := c.casStock(ctx, session, productID, variantID, stock, stock+qty)
		if err != nil {
			return err
		}
		if applied {
			c.recordMovement(ctx, productID, variantID, "return", qty, stock, stock+qty, orderID)
			return nil
		}
	}
	return commerce.ErrConflict
}

// recordMovement trace le mouvement de stock. Best-effort : un échec
// d'écriture du journal n'annule pas le débit déjà appliqué.
func (c *Catalog) recordMovement(ctx context.Context, productID gocql.UUID, variantID *gocql.UUID, movType string, qty, prev, next int, orderID gocql.UUID) {
	session, err := database.GetProductsSession()
	if err != nil {
		log.Printf("⚠️ Mouvement de stock non tracé (%s %s): %v", movType, productID, err)
		return
	}

	err = session.Query(
		`INSERT INTO stock_movements (movement_id, product_id, variant_id, type, quantity,
			prev_stock, new_stock, reason, order_id, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gocql.TimeUUID(), productID, variantID, movType, qty,
		prev, next, "commande "+orderID.String(), orderID, "", time.Now(),
	).WithContext(ctx).Exec()
	if err != nil {
		log.Printf("⚠️ Mouvement de stock non tracé (%s %s): %v", movType, productID, err)
	}
}
