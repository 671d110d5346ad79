package commerce

import (
	"math"

	"shopora_back_end/internal/models"
)

// PricingConfig porte les paramètres tarifaires effectifs d'une boutique.
type PricingConfig struct {
	TaxRate               float64 // taux de taxe forfaitaire (ex: 0.10)
	FreeShippingThreshold float64 // livraison offerte à partir de ce montant
	BaseShippingFee       float64 // frais de port de base
	PerKgOverageFee       float64 // supplément par kg au-delà de 1 kg par article
}

// DefaultPricingConfig retourne les valeurs par défaut, appliquées quand la
// boutique ne définit rien.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		TaxRate:               0.10,
		FreeShippingThreshold: 3000,
		BaseShippingFee:       300,
		PerKgOverageFee:       100,
	}
}

// Merge remplace les valeurs à zéro par celles de la configuration boutique.
func (c PricingConfig) Merge(s models.ShopSettings) PricingConfig {
	out := c
	if s.TaxRate > 0 {
		out.TaxRate = s.TaxRate
	}
	if s.FreeShippingThreshold > 0 {
		out.FreeShippingThreshold = s.FreeShippingThreshold
	}
	if s.BaseShippingFee > 0 {
		out.BaseShippingFee = s.BaseShippingFee
	}
	if s.PerKgOverageFee > 0 {
		out.PerKgOverageFee = s.PerKgOverageFee
	}
	return out
}

// Totals est le résultat du calcul tarifaire d'un panier.
type Totals struct {
	Subtotal        float64
	DiscountAmount  float64
	ShippingAmount  float64
	TaxAmount       float64
	Total           float64
	ItemCount       int
	UniqueItemCount int
}

// ComputeTotals dérive les montants d'un panier à partir de ses lignes.
// Fonction pure : aucun effet de bord, deux appels sur le même jeu de lignes
// donnent le même résultat. Un panier vide donne des totaux à zéro.
//
// Invariant : Total = Subtotal − DiscountAmount + ShippingAmount + TaxAmount.
// Les remises sont bornées au prix unitaire au moment où elles sont posées
// (voir addItem), jamais ici.
func ComputeTotals(items []models.BasketItem, cfg PricingConfig) Totals {
	var t Totals
	if len(items) == 0 {
		return t
	}

	for _, item := range items {
		t.Subtotal += item.UnitPrice * float64(item.Quantity)
		t.DiscountAmount += item.DiscountAmount * float64(item.Quantity)
		t.ItemCount += item.Quantity
	}
	t.UniqueItemCount = len(items)

	taxableBase := t.Subtotal - t.DiscountAmount
	t.TaxAmount = round2(taxableBase * cfg.TaxRate)
	t.ShippingAmount = computeShipping(items, taxableBase, cfg)

	t.Subtotal = round2(t.Subtotal)
	t.DiscountAmount = round2(t.DiscountAmount)
	t.Total = round2(taxableBase + t.TaxAmount + t.ShippingAmount)
	return t
}

// computeShipping : 0 dès le seuil de gratuité, sinon frais de base plus
// supplément pour chaque article dont le poids capturé dépasse 1 kg.
func computeShipping(items []models.BasketItem, taxableBase float64, cfg PricingConfig) float64 {
	if taxableBase >= cfg.FreeShippingThreshold {
		return 0
	}

	shipping := cfg.BaseShippingFee
	for _, item := range items {
		if !item.RequiresShipping {
			continue
		}
		if item.Weight > 1.0 {
			shipping += (item.Weight - 1.0) * cfg.PerKgOverageFee
		}
	}
	return round2(shipping)
}

// round2 arrondit au centime (précision de l'unité monétaire mineure)
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ApplyTotals reporte les totaux calculés sur le panier.
func ApplyTotals(b *models.Basket, t Totals) {
	b.Subtotal = t.Subtotal
	b.DiscountAmount = t.DiscountAmount
	b.ShippingAmount = t.ShippingAmount
	b.TaxAmount = t.TaxAmount
	b.TotalAmount = t.Total
	b.ItemCount = t.ItemCount
	b.UniqueItemCount = t.UniqueItemCount
}
