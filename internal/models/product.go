package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID                gocql.UUID `json:"id" db:"product_id"`
	ShopID            gocql.UUID `json:"shop_id" db:"shop_id"`
	Name              string     `json:"name" db:"name"`
	Description       string     `json:"description" db:"description"`
	Slug              string     `json:"slug" db:"slug"`
	Price             float64    `json:"price" db:"price"`
	OriginalPrice     float64    `json:"original_price" db:"original_price"`
	ManageStock       bool       `json:"manage_stock" db:"manage_stock"`
	Stock             int        `json:"stock" db:"stock"`
	LowStockThreshold int        `json:"low_stock_threshold" db:"low_stock_threshold"`
	SKU               string     `json:"sku" db:"sku"`
	Weight            float64    `json:"weight" db:"weight"`
	RequiresShipping  bool       `json:"requires_shipping" db:"requires_shipping"`
	CategoryID        gocql.UUID `json:"category_id" db:"category_id"`
	ImageURLs         []string   `json:"image_urls" db:"image_urls"`
	Tags              []string   `json:"tags" db:"tags"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	HasVariants       bool       `json:"has_variants" db:"has_variants"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

type ProductVariant struct {
	ID            gocql.UUID        `json:"id"`
	ProductID     gocql.UUID        `json:"product_id"`
	Name          string            `json:"name"`
	SKU           string            `json:"sku"`
	Price         float64           `json:"price"`
	OriginalPrice float64           `json:"original_price"`
	Stock         int               `json:"stock"`
	Weight        float64           `json:"weight"`
	Attributes    map[string]string `json:"attributes"` // {"size": "L", "color": "red"}
	IsActive      bool              `json:"is_active"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// MainImage retourne la première image du produit pour l'aperçu panier
func (p *Product) MainImage() string {
	if len(p.ImageURLs) > 0 {
		return p.ImageURLs[0]
	}
	return ""
}
