package config

import (
	"os"
	"strconv"
	"time"
)

// CommerceConfig porte les réglages du moteur panier/commande.
// Chaque valeur a un défaut raisonnable, surchargée par .env.
type CommerceConfig struct {
	DefaultCurrency       string
	TaxRate               float64
	FreeShippingThreshold float64
	BaseShippingFee       float64
	PerKgOverageFee       float64

	CustomerBasketTTL time.Duration
	GuestBasketTTL    time.Duration

	// Intervalle du balayage des paniers abandonnés et seuil d'inactivité
	SweepInterval    time.Duration
	AbandonThreshold time.Duration
}

// Commerce lit la configuration du moteur depuis l'environnement.
func Commerce() CommerceConfig {
	return CommerceConfig{
		DefaultCurrency:       envString("COMMERCE_CURRENCY", "EUR"),
		TaxRate:               envFloat("COMMERCE_TAX_RATE", 0.10),
		FreeShippingThreshold: envFloat("COMMERCE_FREE_SHIPPING_THRESHOLD", 3000),
		BaseShippingFee:       envFloat("COMMERCE_BASE_SHIPPING_FEE", 300),
		PerKgOverageFee:       envFloat("COMMERCE_PER_KG_OVERAGE_FEE", 100),
		CustomerBasketTTL:     envDuration("COMMERCE_CUSTOMER_BASKET_TTL", 30*24*time.Hour),
		GuestBasketTTL:        envDuration("COMMERCE_GUEST_BASKET_TTL", 7*24*time.Hour),
		SweepInterval:         envDuration("COMMERCE_SWEEP_INTERVAL", 1*time.Hour),
		AbandonThreshold:      envDuration("COMMERCE_ABANDON_THRESHOLD", 72*time.Hour),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
