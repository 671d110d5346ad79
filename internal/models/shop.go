package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Shop struct {
	ID        gocql.UUID   `json:"id"`
	Name      string       `json:"name"`
	Currency  string       `json:"currency"`
	IsActive  bool         `json:"is_active"`
	Settings  ShopSettings `json:"settings"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ShopSettings porte la configuration tarifaire de la boutique.
// Les valeurs à zéro sont remplacées par les défauts globaux (config.Commerce).
type ShopSettings struct {
	TaxRate               float64 `json:"tax_rate"`
	FreeShippingThreshold float64 `json:"free_shipping_threshold"`
	BaseShippingFee       float64 `json:"base_shipping_fee"`
	PerKgOverageFee       float64 `json:"per_kg_overage_fee"`
}
