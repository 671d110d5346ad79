package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"shopora_back_end/internal/cache"
	"shopora_back_end/internal/commerce"
	"shopora_back_end/internal/config"
	"shopora_back_end/internal/database"
	basketHandlers "shopora_back_end/internal/handlers/basket"
	orderHandlers "shopora_back_end/internal/handlers/order"
	paymentHandlers "shopora_back_end/internal/handlers/payment"
	productHandlers "shopora_back_end/internal/handlers/product"
	"shopora_back_end/internal/notify"
	"shopora_back_end/internal/routes"
	"shopora_back_end/internal/storage/scylla"
)

func main() {
	config.Load()

	secret := os.Getenv("STRIPE_SECRET_KEY")
	stripe.Key = secret
	if stripe.Key == "" {
		log.Fatal("❌ Impossible d'initialiser Stripe : clé manquante")
	}
	log.Println("✅ Stripe initialisé")

	database.ConnectDatabases()

	// ✅ Initialiser les requêtes des chemins chauds
	database.InitPreparedStatements()

	// ✅ Pré-chauffer le cache Redis
	warmupRedisCache()

	basketManager := wireCommerce()

	// Balayage périodique des paniers abandonnés
	go runBasketSweeper(basketManager)

	r := gin.Default()
	routes.RegisterRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur Shopora lancé sur le port", port)
	r.Run(":" + port)
}

// wireCommerce assemble les stores ScyllaDB, le moteur panier/commande
// et les injecte dans les handlers.
func wireCommerce() *commerce.BasketManager {
	cfg := config.Commerce()

	basketStore := scylla.NewBasketStore()
	orderStore := scylla.NewOrderStore()
	catalog := scylla.NewCatalog()

	pricing := commerce.PricingConfig{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		BaseShippingFee:       cfg.BaseShippingFee,
		PerKgOverageFee:       cfg.PerKgOverageFee,
	}

	basketManager := commerce.NewBasketManager(basketStore, catalog, catalog, catalog,
		commerce.BasketManagerConfig{
			Pricing:           pricing,
			CustomerBasketTTL: cfg.CustomerBasketTTL,
			GuestBasketTTL:    cfg.GuestBasketTTL,
			DefaultCurrency:   cfg.DefaultCurrency,
		})

	emailsEnabled := os.Getenv("EMAIL_NOTIFICATIONS") != "false"
	notifier := notify.NewEmailNotifier(emailsEnabled)

	orderManager := commerce.NewOrderManager(orderStore, basketStore, catalog, catalog,
		catalog, catalog, notifier, cache.Invalidator{}, pricing)

	basketHandlers.Init(basketManager)
	basketHandlers.InitStore(basketStore)
	orderHandlers.Init(orderManager)
	paymentHandlers.Init(orderManager)
	productHandlers.Init(catalog)

	log.Println("✅ Moteur panier/commande initialisé")
	return basketManager
}

// runBasketSweeper marque périodiquement les paniers inactifs comme abandonnés
func runBasketSweeper(m *commerce.BasketManager) {
	cfg := config.Commerce()

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		swept, err := m.SweepAbandoned(ctx, cfg.AbandonThreshold)
		cancel()
		if err != nil {
			log.Printf("❌ Erreur balayage paniers abandonnés: %v", err)
			continue
		}
		if swept > 0 {
			log.Printf("🧹 %d panier(s) marqué(s) abandonné(s)", swept)
		}
	}
}

// warmupRedisCache pré-chauffe le cache Redis pour éviter la latence du premier appel
func warmupRedisCache() {
	ctx := context.Background()
	if err := database.Redis.Ping(ctx).Err(); err == nil {
		log.Println("✅ Cache Redis pré-chauffé")
	}
}
