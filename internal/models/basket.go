package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts possibles d'un panier
const (
	BasketStatusActive    = "active"
	BasketStatusAbandoned = "abandoned"
	BasketStatusConverted = "converted"
	BasketStatusExpired   = "expired"
)

type Basket struct {
	ID         gocql.UUID  `json:"id"`
	ShopID     gocql.UUID  `json:"shop_id"`
	CustomerID *gocql.UUID `json:"customer_id,omitempty"`
	SessionID  string      `json:"session_id,omitempty"`
	Token      string      `json:"basket_token"`
	Status     string      `json:"status"`
	IsGuest    bool        `json:"is_guest"`

	// Montants calculés — jamais modifiés directement, toujours recalculés
	Subtotal        float64 `json:"subtotal"`
	DiscountAmount  float64 `json:"discount_amount"`
	ShippingAmount  float64 `json:"shipping_amount"`
	TaxAmount       float64 `json:"tax_amount"`
	TotalAmount     float64 `json:"total_amount"`
	ItemCount       int     `json:"item_count"`
	UniqueItemCount int     `json:"unique_item_count"`

	Currency          string      `json:"currency"`
	CouponCode        *string     `json:"coupon_code,omitempty"`
	ShippingAddressID *gocql.UUID `json:"shipping_address_id,omitempty"`

	Items []BasketItem `json:"items"`

	// Version pour le verrouillage optimiste
	Version int64 `json:"-"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

type BasketItem struct {
	ID        gocql.UUID  `json:"id"`
	BasketID  gocql.UUID  `json:"basket_id"`
	ProductID gocql.UUID  `json:"product_id"`
	VariantID *gocql.UUID `json:"variant_id,omitempty"`

	// Snapshot du produit capturé au moment de l'ajout
	ProductName       string            `json:"product_name"`
	ProductSKU        string            `json:"product_sku,omitempty"`
	VariantName       string            `json:"variant_name,omitempty"`
	VariantAttributes map[string]string `json:"variant_attributes,omitempty"`
	ImageURL          string            `json:"image_url,omitempty"`
	Weight            float64           `json:"weight"`
	RequiresShipping  bool              `json:"requires_shipping"`

	UnitPrice      float64 `json:"unit_price"`
	OriginalPrice  float64 `json:"original_price"`
	DiscountAmount float64 `json:"discount_amount"`
	Quantity       int     `json:"quantity"`

	// État du stock observé lors de la dernière validation
	InStock       bool `json:"is_in_stock"`
	StockObserved int  `json:"stock_observed"`

	AddedAt   time.Time `json:"added_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineTotal retourne le total de la ligne après remise
func (i *BasketItem) LineTotal() float64 {
	return (i.UnitPrice - i.DiscountAmount) * float64(i.Quantity)
}

// FindItem retourne l'item correspondant au couple (produit, variante), ou nil
func (b *Basket) FindItem(productID gocql.UUID, variantID *gocql.UUID) *BasketItem {
	for idx := range b.Items {
		item := &b.Items[idx]
		if item.ProductID != productID {
			continue
		}
		if (item.VariantID == nil) != (variantID == nil) {
			continue
		}
		if item.VariantID == nil || *item.VariantID == *variantID {
			return item
		}
	}
	return nil
}

// FindItemByID retourne l'item par son identifiant, ou nil
func (b *Basket) FindItemByID(itemID gocql.UUID) *BasketItem {
	for idx := range b.Items {
		if b.Items[idx].ID == itemID {
			return &b.Items[idx]
		}
	}
	return nil
}

// IsEmpty indique si le panier ne contient aucun article
func (b *Basket) IsEmpty() bool {
	return len(b.Items) == 0
}

// IsExpired indique si le panier a dépassé sa date d'expiration
func (b *Basket) IsExpired(now time.Time) bool {
	return b.ExpiresAt != nil && now.After(*b.ExpiresAt)
}

// IsMutable indique si le panier peut encore être modifié
func (b *Basket) IsMutable() bool {
	return b.Status == BasketStatusActive
}
