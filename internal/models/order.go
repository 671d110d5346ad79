package models

import (
	"time"

	"github.com/gocql/gocql"
)

type OrderStatus string

// Statuts de commande (machine à états — voir commerce.OrderManager)
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// ValidOrderStatus vérifie qu'une valeur de statut est connue
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

type PaymentStatus string

// Statuts de paiement — indépendants du statut de commande
const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// StatusChange est une entrée du journal de statuts (append-only)
type StatusChange struct {
	OldStatus OrderStatus `json:"old_status"`
	NewStatus OrderStatus `json:"new_status"`
	Actor     string      `json:"actor"`
	Note      string      `json:"note,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

type Order struct {
	ID          gocql.UUID `json:"id"`
	ShopID      gocql.UUID `json:"shop_id"`
	OrderNumber string     `json:"order_number"`

	// Snapshot client capturé à la création — indépendant des modifications
	// ultérieures du profil client
	CustomerID      *gocql.UUID `json:"customer_id,omitempty"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	ShippingAddress *Address    `json:"shipping_address,omitempty"`
	BillingAddress  *Address    `json:"billing_address,omitempty"`

	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`

	PaymentMethod    string `json:"payment_method,omitempty"`
	PaymentReference string `json:"payment_reference,omitempty"`

	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	ShippingAmount float64 `json:"shipping_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	TotalAmount    float64 `json:"total_amount"`
	Currency       string  `json:"currency"`

	TrackingNumber  string `json:"tracking_number,omitempty"`
	ShippingCarrier string `json:"shipping_carrier,omitempty"`

	CustomerNotes string `json:"customer_notes,omitempty"`
	StaffNotes    string `json:"staff_notes,omitempty"`

	Items         []OrderItem    `json:"items"`
	StatusHistory []StatusChange `json:"status_history"`

	SourceBasketID *gocql.UUID `json:"source_basket_id,omitempty"`

	Version int64 `json:"-"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// OrderItem est un snapshot immuable d'une ligne — jamais recalculé après création
type OrderItem struct {
	ID        gocql.UUID  `json:"id"`
	OrderID   gocql.UUID  `json:"order_id"`
	ProductID gocql.UUID  `json:"product_id"`
	VariantID *gocql.UUID `json:"variant_id,omitempty"`

	ProductName       string            `json:"product_name"`
	ProductSKU        string            `json:"product_sku,omitempty"`
	VariantName       string            `json:"variant_name,omitempty"`
	VariantAttributes map[string]string `json:"variant_attributes,omitempty"`
	ImageURL          string            `json:"image_url,omitempty"`

	UnitPrice      float64 `json:"unit_price"`
	DiscountAmount float64 `json:"discount_amount"`
	Quantity       int     `json:"quantity"`
	TotalPrice     float64 `json:"total_price"`
}

// IsTerminal indique si la commande ne peut plus changer de statut
// (exception : delivered peut encore passer à refunded)
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusCancelled, OrderStatusRefunded, OrderStatusFailed:
		return true
	}
	return false
}

// ItemQuantity retourne le nombre total d'articles de la commande
func (o *Order) ItemQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
